// Package letters extracts paragraphs from Seneca's Moral Letters to Lucilius
// as published on Wikisource.
package letters

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/xhad/stoic/internal/models"
	"github.com/xhad/stoic/internal/types"
	"github.com/xhad/stoic/pkg/processor"
	"golang.org/x/net/html"
)

const (
	DefaultIndexURL = "https://en.wikisource.org/wiki/Moral_letters_to_Lucilius"
	DefaultBaseURL  = "https://en.wikisource.org"

	// MinFragmentLength is exclusive: a fragment needs more trimmed characters than this.
	MinFragmentLength = 40
)

var (
	// \s alone is ASCII-only in RE2; Wikisource titles may use non-breaking spaces.
	// A single trailing newline is tolerated.
	titlePattern    = regexp.MustCompile(`^Letter[\s\p{Z}\x{85}\x1c-\x1f]+[0-9]{1,3}\n?$`)
	footnotePattern = regexp.MustCompile(`\[[0-9]+\]`)
	bulletPattern   = regexp.MustCompile(`[0-9]+\. `)

	cleanup = processor.New(
		processor.Replace("  ", " "),
		processor.Remove(footnotePattern),
		processor.Remove(bulletPattern),
	)
)

type ExtractorConfig struct {
	IndexURL string
	BaseURL  string
	// ContinueOnError records failed letters in Result.Failures instead of
	// aborting the whole extraction.
	ContinueOnError bool
	OnProgress      func(link Link)
}

// Link is an index page anchor that points at a single letter.
type Link struct {
	Title string
	Href  string
}

// Failure records a letter that could not be fetched or parsed.
type Failure struct {
	Link
	Err error
}

type Result struct {
	Fragments []models.LetterFragment
	Failures  []Failure
}

type Extractor struct {
	config  ExtractorConfig
	fetcher types.Fetcher
}

func NewWithConfig(config ExtractorConfig, fetcher types.Fetcher) *Extractor {
	if config.IndexURL == "" {
		config.IndexURL = DefaultIndexURL
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &Extractor{
		config:  config,
		fetcher: fetcher,
	}
}

// Links fetches the index page and returns the letter anchors in document order.
func (e *Extractor) Links(ctx context.Context) ([]Link, error) {
	doc, err := e.fetcher.FetchDocument(ctx, e.config.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch letters index: %w", err)
	}
	return FindLinks(doc), nil
}

// Extract fetches every letter linked from the index page. Letters are
// processed in link order and fragments keep paragraph order.
func (e *Extractor) Extract(ctx context.Context) (*Result, error) {
	links, err := e.Links(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(links)).Str("url", e.config.IndexURL).Msg("found letters")

	result := &Result{}
	for _, link := range links {
		if e.config.OnProgress != nil {
			e.config.OnProgress(link)
		}

		fragments, err := e.pullLetter(ctx, link)
		if err != nil {
			if !e.config.ContinueOnError {
				return nil, err
			}
			log.Warn().Err(err).Str("title", link.Title).Msg("skipping letter")
			result.Failures = append(result.Failures, Failure{Link: link, Err: err})
			continue
		}

		result.Fragments = append(result.Fragments, fragments...)
	}

	log.Info().
		Int("fragments", len(result.Fragments)).
		Int("failures", len(result.Failures)).
		Msg("extracted letters")

	return result, nil
}

func (e *Extractor) pullLetter(ctx context.Context, link Link) ([]models.LetterFragment, error) {
	log.Debug().Str("title", link.Title).Str("href", link.Href).Msg("pulling letter")

	doc, err := e.fetcher.FetchDocument(ctx, e.config.BaseURL+link.Href)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", link.Title, err)
	}

	var fragments []models.LetterFragment
	for _, text := range Fragments(ParagraphText(doc)) {
		fragments = append(fragments, models.LetterFragment{
			Title: link.Title,
			Href:  link.Href,
			Text:  text,
		})
	}
	return fragments, nil
}

// FindLinks returns the anchors whose first child is text of the form
// "Letter <n>" with n of one to three digits.
func FindLinks(doc *goquery.Document) []Link {
	var links []Link
	doc.Find("a").Each(func(_ int, selection *goquery.Selection) {
		title, ok := firstChildText(selection)
		if !ok || !MatchTitle(title) {
			return
		}
		href, _ := selection.Attr("href")
		links = append(links, Link{Title: title, Href: href})
	})
	return links
}

func MatchTitle(text string) bool {
	return titlePattern.MatchString(text)
}

func firstChildText(selection *goquery.Selection) (string, bool) {
	if len(selection.Nodes) == 0 {
		return "", false
	}
	child := selection.Nodes[0].FirstChild
	if child == nil || child.Type != html.TextNode {
		return "", false
	}
	return child.Data, true
}

// ParagraphText joins the text of every <p> element with newlines.
func ParagraphText(doc *goquery.Document) string {
	paragraphs := doc.Find("p").Map(func(_ int, selection *goquery.Selection) string {
		return selection.Text()
	})
	return strings.Join(paragraphs, "\n")
}

// Fragments cleans the joined paragraph text and splits it into fragments
// longer than MinFragmentLength.
func Fragments(text string) []string {
	units := processor.Split(cleanup.Apply(text), "\n\n")
	units = processor.Map(units, strings.TrimSpace)

	return processor.Filter(units, func(unit string) bool {
		return utf8.RuneCountInString(unit) > MinFragmentLength
	})
}
