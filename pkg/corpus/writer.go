// Package corpus numbers extracted passages and streams them to sinks.
package corpus

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/xhad/stoic/internal/models"
	"github.com/xhad/stoic/internal/types"
)

// SerializationError reports a record the sink failed to accept.
type SerializationError struct {
	ID  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to write record %s: %v", e.ID, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

type Writer struct {
	sink types.Sink
}

func NewWriter(sink types.Sink) *Writer {
	return &Writer{sink: sink}
}

// Write emits the meditations and then the letter fragments, numbering them
// from "0" in that order. Records reach the sink one at a time and the first
// failure stops the run. It returns the number of records written.
func (w *Writer) Write(meditations []string, letters []models.LetterFragment) (int, error) {
	next := 0

	emit := func(text string, source models.Source) error {
		passage := models.Passage{
			ID:     strconv.Itoa(next),
			Text:   text,
			Source: source,
		}
		if err := w.sink.Write(passage); err != nil {
			return &SerializationError{ID: passage.ID, Err: err}
		}
		next++
		return nil
	}

	for _, text := range meditations {
		if err := emit(text, models.SourceMeditations); err != nil {
			return next, err
		}
	}
	for _, fragment := range letters {
		if err := emit(fragment.Text, models.SourceLetters); err != nil {
			return next, err
		}
	}

	log.Info().
		Int("meditations", len(meditations)).
		Int("letters", len(letters)).
		Int("total", next).
		Msg("wrote corpus")

	return next, nil
}
