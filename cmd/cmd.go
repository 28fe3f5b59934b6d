package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/stoic/internal/types"
	cfgPkg "github.com/xhad/stoic/pkg/config"
	"github.com/xhad/stoic/pkg/corpus"
	"github.com/xhad/stoic/pkg/letters"
	"github.com/xhad/stoic/pkg/llm"
	"github.com/xhad/stoic/pkg/meditations"
	"github.com/xhad/stoic/pkg/scraper"
	"github.com/xhad/stoic/pkg/store"
)

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("letters"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(ctx context.Context, config *cfgPkg.Config) error {
	s := scraper.NewWithConfig(scraper.ScraperConfig{
		UserAgent: config.Scraper.UserAgent,
		Timeout:   config.Scraper.Timeout,
		RateLimit: config.Scraper.RateLimit,
	})
	defer s.Close()

	// Meditations
	color.Blue("\nRetrieving Meditations from %s\n", config.Sources.MeditationsURL)
	spinner := getSpinner("📜 Fetching Meditations...")

	passages, err := meditations.NewWithConfig(meditations.ExtractorConfig{
		URL: config.Sources.MeditationsURL,
	}, s).Extract(ctx)
	spinner.Finish()
	if err != nil {
		return err
	}
	color.Green("\n✓ Extracted %d passages from Meditations\n", len(passages))

	// Letters
	color.Blue("\nRetrieving Letters from %s\n", config.Sources.LettersIndexURL)
	letterBar := getProgressBar(-1, "✉  Pulling letters...")

	result, err := letters.NewWithConfig(letters.ExtractorConfig{
		IndexURL:        config.Sources.LettersIndexURL,
		BaseURL:         config.Sources.LettersBaseURL,
		ContinueOnError: config.Scraper.ContinueOnError,
		OnProgress: func(link letters.Link) {
			letterBar.Describe(color.BlueString("✉  Pulling %s...", link.Title))
			letterBar.Add(1)
		},
	}, s).Extract(ctx)
	letterBar.Finish()
	if err != nil {
		return err
	}
	color.Green("\n✓ Extracted %d fragments from the Letters\n", len(result.Fragments))
	for _, failure := range result.Failures {
		color.Yellow("  skipped %s: %v\n", failure.Title, failure.Err)
	}

	if config.Output.DumpDir != "" {
		if err := corpus.Dump(config.Output.DumpDir, passages, result.Fragments); err != nil {
			return err
		}
	}

	// Corpus
	sink, err := openSink(ctx, config)
	if err != nil {
		return err
	}

	n, err := corpus.NewWriter(sink).Write(passages, result.Fragments)
	if closeErr := sink.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close output: %w", closeErr))
	}
	if err != nil {
		return err
	}

	color.Green("\n✓ Wrote %d passages to %s\n", n, config.Output.Path)
	return nil
}

// openSink returns the JSONL file sink, fanned out to the passage store when
// a database is configured.
func openSink(ctx context.Context, config *cfgPkg.Config) (types.Sink, error) {
	var sinks corpus.MultiSink

	if config.Database.URL != "" {
		var embedder types.Embedder
		if config.Embedder.Enabled {
			emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
				Model:   config.Embedder.Model,
				BaseURL: config.Embedder.BaseURL,
			})
			if err != nil {
				return nil, err
			}
			embedder = emb
		}

		passageStore, err := store.NewWithConfig(ctx, store.PassageStoreConfig{
			ConnString: config.Database.URL,
			TableName:  config.Database.TableName,
			VectorDim:  config.Database.VectorDim,
			BatchSize:  config.Database.BatchSize,
		}, embedder)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize passage store: %w", err)
		}
		sinks = append(sinks, passageStore)
	}

	jsonl, err := corpus.CreateJSONL(config.Output.Path)
	if err != nil {
		sinks.Close()
		return nil, err
	}

	// the file is written first
	return append(corpus.MultiSink{jsonl}, sinks...), nil
}
