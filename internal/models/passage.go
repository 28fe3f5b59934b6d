package models

type Source string

const (
	SourceMeditations Source = "meditations"
	SourceLetters     Source = "letters"
)

// Passage is one record of the output corpus.
type Passage struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// LetterFragment is a paragraph-level unit taken from one of Seneca's letters.
// Title and Href are kept for logging and debug dumps only.
type LetterFragment struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Text  string `json:"text"`
}
