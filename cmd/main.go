package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	cfgPkg "github.com/xhad/stoic/pkg/config"
)

type options struct {
	configPath      string
	output          string
	dumpDir         string
	continueOnError bool
	debug           bool
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "stoic",
		Short:         "Build a JSONL corpus from Meditations and the Moral Letters to Lucilius",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			setupLogging(config.Log)

			return run(cmd.Context(), config)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file")
	flags.StringVarP(&opts.output, "output", "o", cfgPkg.DefaultOutputPath, "Output JSONL file")
	flags.StringVar(&opts.dumpDir, "dump-dir", "", "Directory for intermediate extraction dumps")
	flags.BoolVar(&opts.continueOnError, "continue-on-error", false, "Skip letters that fail to download instead of aborting")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

func loadConfig(cmd *cobra.Command, opts options) (*cfgPkg.Config, error) {
	config, err := cfgPkg.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	// Override config with command line flags if provided
	flags := cmd.Flags()
	if flags.Changed("output") {
		config.Output.Path = opts.output
	}
	if flags.Changed("dump-dir") {
		config.Output.DumpDir = opts.dumpDir
	}
	if flags.Changed("continue-on-error") {
		config.Scraper.ContinueOnError = opts.continueOnError
	}
	if opts.debug {
		config.Log.Level = "debug"
	}

	if errs := config.Validate(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	return config, nil
}

func setupLogging(config cfgPkg.LogConfig) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
