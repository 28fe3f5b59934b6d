package letters_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/stoic/internal/models"
	"github.com/xhad/stoic/pkg/letters"
	"github.com/xhad/stoic/pkg/scraper"
)

type stubFetcher struct {
	pages map[string]string
	urls  []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	page, ok := f.pages[url]
	if !ok {
		return "", &scraper.NetworkError{URL: url, StatusCode: http.StatusNotFound}
	}
	return page, nil
}

func (f *stubFetcher) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	page, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(page))
}

const indexPage = `<html><body>
<h1>Moral letters to Lucilius</h1>
<ul>
<li><a href="/wiki/Moral_letters_to_Lucilius/Letter_1">Letter 1</a></li>
<li><a href="/wiki/Moral_letters_to_Lucilius/Letter_2"><b>Letter 2</b></a></li>
<li><a href="/wiki/Empty"></a></li>
<li><a href="/wiki/Moral_letters_to_Lucilius/Letter_1000">Letter 1000</a></li>
<li><a href="/wiki/Moral_letters_to_Lucilius/Letter_88">Letter 88</a></li>
<li><a href="/wiki/About">About this edition</a></li>
</ul>
</body></html>`

const letterOne = `<html><body>
<div class="header"><a href="/wiki/Seneca">Seneca</a></div>
<p>1. Greetings [1] Lucilius, this is short.
</p>
<p>2. Continue to act thus, my dear Lucilius[2] and set yourself free for your own sake.
</p>
<p>3. Gather and save your time, which till lately has been  forced from you.
</p>
</body></html>`

const letterEightyEight = `<html><body>
<p>You have been wishing to know my views with regard to liberal studies.
</p>
</body></html>`

func newIndexFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string]string{
		letters.DefaultIndexURL: indexPage,
		"https://en.wikisource.org/wiki/Moral_letters_to_Lucilius/Letter_1":  letterOne,
		"https://en.wikisource.org/wiki/Moral_letters_to_Lucilius/Letter_88": letterEightyEight,
	}}
}

func TestMatchTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Letter 5", true},
		{"Letter 7", true},
		{"Letter 88", true},
		{"Letter 104", true},
		{"Letter 123", true},
		{"Letter\t12", true},
		{"Letter   12", true},
		{"Letter\u00a05", true},
		{"Letter\u2003104", true},
		{"Letter 5\n", true},
		{"Letter 5\n\n", false},
		{"Letter\u00a01000", false},
		{"Letter 1000", false},
		{"Letter", false},
		{"Letter ", false},
		{"letter 12", false},
		{" Letter 12", false},
		{"Letter 12 ", false},
		{"Letter XII", false},
		{"Moral Letter 12", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, letters.MatchTitle(tt.title))
		})
	}
}

func TestFindLinks(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(indexPage))
	require.NoError(t, err)

	want := []letters.Link{
		{Title: "Letter 1", Href: "/wiki/Moral_letters_to_Lucilius/Letter_1"},
		{Title: "Letter 88", Href: "/wiki/Moral_letters_to_Lucilius/Letter_88"},
	}
	if diff := cmp.Diff(want, letters.FindLinks(doc)); diff != "" {
		t.Errorf("FindLinks() mismatch (-want +got):\n%s", diff)
	}
}

func TestFragments_Scenario(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(letterOne))
	require.NoError(t, err)

	got := letters.Fragments(letters.ParagraphText(doc))

	want := []string{
		"Continue to act thus, my dear Lucilius and set yourself free for your own sake.",
		"Gather and save your time, which till lately has been forced from you.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fragments() mismatch (-want +got):\n%s", diff)
	}
}

func TestFragments_SpaceCollapseIsSinglePass(t *testing.T) {
	text := "two  spaces here and then four    spaces in this long enough fragment"

	got := letters.Fragments(text)
	require.Len(t, got, 1)
	assert.Equal(t, "two spaces here and then four  spaces in this long enough fragment", got[0])
}

func TestFragments_LengthBoundary(t *testing.T) {
	exactly40 := strings.Repeat("a", 40)
	exactly41 := strings.Repeat("b", 41)

	got := letters.Fragments("  " + exactly40 + "  \n\n" + exactly41 + "\n\n\n\n")
	assert.Equal(t, []string{exactly41}, got)

	for _, fragment := range got {
		assert.Greater(t, len(strings.TrimSpace(fragment)), letters.MinFragmentLength)
	}
}

func TestFragments_CountsCharactersNotBytes(t *testing.T) {
	short := "“Farewell”—Seneca’s close—“done”—ok"
	require.Less(t, utf8.RuneCountInString(short), letters.MinFragmentLength+1)
	require.Greater(t, len(short), letters.MinFragmentLength)

	assert.Empty(t, letters.Fragments(short))

	long := "“Farewell”—Seneca’s close—“done”—and so on."
	require.Greater(t, utf8.RuneCountInString(long), letters.MinFragmentLength)
	assert.Equal(t, []string{long}, letters.Fragments(long))
}

func TestFragments_StripsMarkersAnywhere(t *testing.T) {
	got := letters.Fragments("Virtue[12] is nothing else than right reason.[3] 14. So say the Stoics.")
	assert.Equal(t, []string{"Virtue is nothing else than right reason. So say the Stoics."}, got)
}

func TestFragments_Empty(t *testing.T) {
	assert.Empty(t, letters.Fragments(""))
}

func TestExtractor_Extract(t *testing.T) {
	fetcher := newIndexFetcher()

	var progress []string
	e := letters.NewWithConfig(letters.ExtractorConfig{
		OnProgress: func(link letters.Link) {
			progress = append(progress, link.Title)
		},
	}, fetcher)

	result, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"Letter 1", "Letter 88"}, progress)

	want := []models.LetterFragment{
		{
			Title: "Letter 1",
			Href:  "/wiki/Moral_letters_to_Lucilius/Letter_1",
			Text:  "Continue to act thus, my dear Lucilius and set yourself free for your own sake.",
		},
		{
			Title: "Letter 1",
			Href:  "/wiki/Moral_letters_to_Lucilius/Letter_1",
			Text:  "Gather and save your time, which till lately has been forced from you.",
		},
		{
			Title: "Letter 88",
			Href:  "/wiki/Moral_letters_to_Lucilius/Letter_88",
			Text:  "You have been wishing to know my views with regard to liberal studies.",
		},
	}
	if diff := cmp.Diff(want, result.Fragments); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{
		letters.DefaultIndexURL,
		"https://en.wikisource.org/wiki/Moral_letters_to_Lucilius/Letter_1",
		"https://en.wikisource.org/wiki/Moral_letters_to_Lucilius/Letter_88",
	}, fetcher.urls)
}

func TestExtractor_IndexFailure(t *testing.T) {
	e := letters.NewWithConfig(letters.ExtractorConfig{}, &stubFetcher{pages: map[string]string{}})

	result, err := e.Extract(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var netErr *scraper.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestExtractor_LetterFailureIsFatalByDefault(t *testing.T) {
	fetcher := newIndexFetcher()
	delete(fetcher.pages, "https://en.wikisource.org/wiki/Moral_letters_to_Lucilius/Letter_1")

	e := letters.NewWithConfig(letters.ExtractorConfig{}, fetcher)

	result, err := e.Extract(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "Letter 1")

	var netErr *scraper.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)

	// the run stops at the first failing letter
	assert.Len(t, fetcher.urls, 2)
}

func TestExtractor_ContinueOnError(t *testing.T) {
	fetcher := newIndexFetcher()
	delete(fetcher.pages, "https://en.wikisource.org/wiki/Moral_letters_to_Lucilius/Letter_1")

	e := letters.NewWithConfig(letters.ExtractorConfig{ContinueOnError: true}, fetcher)

	result, err := e.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "Letter 1", result.Failures[0].Title)
	assert.Error(t, result.Failures[0].Err)

	require.Len(t, result.Fragments, 1)
	assert.Equal(t, "Letter 88", result.Fragments[0].Title)
}

func TestExtractor_WithMockServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Moral_letters_to_Lucilius", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/wiki/Moral_letters_to_Lucilius/Letter_1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(letterOne))
	})
	mux.HandleFunc("/wiki/Moral_letters_to_Lucilius/Letter_88", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(letterEightyEight))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := scraper.New()
	defer s.Close()

	e := letters.NewWithConfig(letters.ExtractorConfig{
		IndexURL: server.URL + "/wiki/Moral_letters_to_Lucilius",
		BaseURL:  server.URL + "/",
	}, s)

	result, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Fragments, 3)
}
