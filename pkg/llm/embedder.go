package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	DefaultModel   = "nomic-embed-text:latest"
	DefaultBaseURL = "http://localhost:11434"
)

// EmbedderConfig represents the configuration for an Ollama embedder.
type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
}

// Embedder turns passages into vectors with an Ollama embedding model.
type Embedder struct {
	config EmbedderConfig
	embed  *ollama.LLM
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	emb, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		config: config,
		embed:  emb,
	}, nil
}

func (e *Embedder) Config() EmbedderConfig {
	return e.config
}

// EmbedText returns the embedding of a single passage.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.embed.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return FlattenEmbeddings(embeddings), nil
}

func FlattenEmbeddings(embeddings [][]float32) []float32 {
	var flattened []float32
	for _, emb := range embeddings {
		flattened = append(flattened, emb...)
	}
	return flattened
}
