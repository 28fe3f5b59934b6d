package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "stoic-corpus/1.0 (+https://github.com/xhad/stoic)"

type ScraperConfig struct {
	UserAgent string
	Timeout   time.Duration // zero waits for the server indefinitely
	RateLimit float64       // requests per second, zero disables limiting
}

// Scraper implements the fetch and parse capabilities used by the extractors.
// Every call blocks until the response body has been read; there is no retry.
type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	s := &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
	if config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	return s
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

// Fetch returns the response body decoded to UTF-8 according to the
// Content-Type header, sniffing the content when no charset is declared.
func (s *Scraper) Fetch(ctx context.Context, urlStr string) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", &NetworkError{URL: urlStr, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &NetworkError{URL: urlStr, Err: err}
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	log.Debug().Str("url", urlStr).Msg("fetching")
	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("received status code %d", resp.StatusCode),
		}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &ParseError{URL: urlStr, Err: fmt.Errorf("failed to detect charset: %w", err)}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", &NetworkError{URL: urlStr, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	log.Debug().
		Str("url", urlStr).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	return string(data), nil
}

// FetchDocument fetches urlStr and parses it as HTML.
func (s *Scraper) FetchDocument(ctx context.Context, urlStr string) (*goquery.Document, error) {
	content, err := s.Fetch(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &ParseError{URL: urlStr, Err: err}
	}
	return doc, nil
}

// Close releases idle keep-alive connections.
func (s *Scraper) Close() {
	s.client.CloseIdleConnections()
}
