package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/xhad/stoic/internal/models"
	"github.com/xhad/stoic/internal/types"
)

type PassageStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// PassageStore persists passages to PostgreSQL. Rows are queued and sent in
// batches of BatchSize; Close sends whatever is still queued. When an
// embedder is configured each passage is stored with its pgvector embedding.
type PassageStore struct {
	ctx      context.Context
	config   PassageStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
	batch    *pgx.Batch
}

func NewWithConfig(ctx context.Context, config PassageStoreConfig, embedder types.Embedder) (*PassageStore, error) {
	if config.TableName == "" {
		config.TableName = "passages"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PassageStore{
		ctx:      ctx,
		config:   config,
		pool:     pool,
		embedder: embedder,
		batch:    &pgx.Batch{},
	}

	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PassageStore) initialize() error {
	if s.embedder != nil {
		if _, err := s.pool.Exec(s.ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("failed to create vector extension: %w", err)
		}
	}

	createTable := createTableSQL(s.config.TableName, s.config.VectorDim, s.embedder != nil)
	if _, err := s.pool.Exec(s.ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// Write queues one passage, sending the batch once it is full.
func (s *PassageStore) Write(passage models.Passage) error {
	text := sanitizeUTF8(passage.Text)

	if s.embedder != nil {
		embedding, err := s.embedder.EmbedText(s.ctx, text)
		if err != nil {
			return fmt.Errorf("failed to embed passage %s: %w", passage.ID, err)
		}
		if len(embedding) != s.config.VectorDim {
			return fmt.Errorf("embedding has %d dimensions, table expects %d", len(embedding), s.config.VectorDim)
		}
		s.batch.Queue(insertSQL(s.config.TableName, true),
			passage.ID, string(passage.Source), text, pgvector.NewVector(embedding))
	} else {
		s.batch.Queue(insertSQL(s.config.TableName, false),
			passage.ID, string(passage.Source), text)
	}

	if s.batch.Len() >= s.config.BatchSize {
		return s.Flush()
	}
	return nil
}

// Flush sends the queued rows in a single round trip.
func (s *PassageStore) Flush() error {
	queued := s.batch.Len()
	if queued == 0 {
		return nil
	}

	results := s.pool.SendBatch(s.ctx, s.batch)
	s.batch = &pgx.Batch{}

	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert passage: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	log.Debug().Int("rows", queued).Str("table", s.config.TableName).Msg("stored passages")
	return nil
}

// Count returns the number of stored passages for source.
func (s *PassageStore) Count(source models.Source) (int, error) {
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE source = $1", pgx.Identifier{s.config.TableName}.Sanitize())

	var n int
	if err := s.pool.QueryRow(s.ctx, query, string(source)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return n, nil
}

// Close sends the remaining rows, logs the stored totals and releases the pool.
func (s *PassageStore) Close() error {
	err := s.Flush()
	if err == nil {
		s.logCounts()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *PassageStore) logCounts() {
	meditations, err := s.Count(models.SourceMeditations)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count stored passages")
		return
	}
	letters, err := s.Count(models.SourceLetters)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count stored passages")
		return
	}

	log.Info().
		Str("table", s.config.TableName).
		Int("meditations", meditations).
		Int("letters", letters).
		Msg("stored passages")
}

func createTableSQL(table string, vectorDim int, withEmbedding bool) string {
	name := pgx.Identifier{table}.Sanitize()
	if !withEmbedding {
		return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			text TEXT NOT NULL
		)`, name)
	}
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			text TEXT NOT NULL,
			embedding vector(%d)
		)`, name, vectorDim)
}

func insertSQL(table string, withEmbedding bool) string {
	name := pgx.Identifier{table}.Sanitize()
	if !withEmbedding {
		return fmt.Sprintf(`
		INSERT INTO %s (id, source, text)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			text = EXCLUDED.text`, name)
	}
	return fmt.Sprintf(`
		INSERT INTO %s (id, source, text, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding`, name)
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
