package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate source URLs
	sources := []struct {
		field string
		value string
	}{
		{"sources.meditations_url", c.Sources.MeditationsURL},
		{"sources.letters_index_url", c.Sources.LettersIndexURL},
		{"sources.letters_base_url", c.Sources.LettersBaseURL},
	}
	for _, src := range sources {
		if !isHTTPURL(src.value) {
			errors = append(errors, ValidationError{
				Field:   src.field,
				Message: fmt.Sprintf("invalid http(s) URL: %q", src.value),
			})
		}
	}

	// Validate Scraper config
	if c.Scraper.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.timeout",
			Message: "timeout must not be negative",
		})
	}

	if c.Scraper.RateLimit < 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must not be negative",
		})
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "output.path",
			Message: "output path is required",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	// Validate Embedder config
	if c.Embedder.Enabled {
		if c.Database.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "embedder.enabled",
				Message: "embeddings are stored in the database, database.url is required",
			})
		}
		if !isHTTPURL(c.Embedder.BaseURL) {
			errors = append(errors, ValidationError{
				Field:   "embedder.base_url",
				Message: "invalid Ollama base URL",
			})
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown level %q", c.Log.Level),
		})
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("unknown format %q", c.Log.Format),
		})
	}

	return errors
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
