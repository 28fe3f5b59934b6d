// Package meditations extracts passages from George Long's plain-text
// translation of Marcus Aurelius' Meditations.
package meditations

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xhad/stoic/internal/types"
	"github.com/xhad/stoic/pkg/processor"
	"github.com/xhad/stoic/pkg/scraper"
)

const (
	DefaultURL = "http://classics.mit.edu/Antoninus/meditations.mb.txt"

	translatorMarker = "Translated by George Long"
	endMarker        = "THE END"
)

var (
	dividerPattern    = regexp.MustCompile(`-{2,}`)
	bookHeaderPattern = regexp.MustCompile(`BOOK [A-Z]+\n`)

	cleanup = processor.New(
		processor.After(translatorMarker),
		processor.Remove(dividerPattern),
		processor.Remove(bookHeaderPattern),
		processor.Before(endMarker),
	)
)

type ExtractorConfig struct {
	URL string
}

type Extractor struct {
	config  ExtractorConfig
	fetcher types.Fetcher
}

func NewWithConfig(config ExtractorConfig, fetcher types.Fetcher) *Extractor {
	if config.URL == "" {
		config.URL = DefaultURL
	}

	return &Extractor{
		config:  config,
		fetcher: fetcher,
	}
}

// Extract fetches the translation and returns its passages in document order.
func (e *Extractor) Extract(ctx context.Context) ([]string, error) {
	raw, err := e.fetcher.Fetch(ctx, e.config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meditations: %w", err)
	}

	if !strings.Contains(raw, translatorMarker) {
		return nil, &scraper.ParseError{
			URL: e.config.URL,
			Err: fmt.Errorf("marker %q not found", translatorMarker),
		}
	}

	passages := Passages(raw)
	log.Info().Int("count", len(passages)).Msg("extracted stoic lessons from Marcus Aurelius")

	return passages, nil
}

// Passages turns the raw translation into cleaned passages. Units are only
// dropped when literally empty: a whitespace-only unit survives and comes out
// as "".
func Passages(raw string) []string {
	units := processor.Split(cleanup.Apply(raw), "\n\n")

	units = processor.Filter(units, func(unit string) bool {
		return strings.ReplaceAll(unit, `\s+`, "") != ""
	})
	units = processor.Map(units, func(unit string) string {
		return strings.ReplaceAll(unit, "\n", " ")
	})

	return processor.Map(units, strings.TrimSpace)
}
