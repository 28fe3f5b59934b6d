package types

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/stoic/internal/models"
)

// Core interfaces
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

type Sink interface {
	Write(passage models.Passage) error
	Close() error
}

type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
