package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xhad/stoic/internal/models"
	"github.com/xhad/stoic/internal/types"
)

// JSONLSink writes one JSON object per line. Every record is handed to the
// underlying writer as soon as it is encoded, so a failed run leaves a
// well-formed prefix behind.
type JSONLSink struct {
	enc    *json.Encoder
	closer io.Closer
}

func NewJSONLSink(w io.Writer) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	sink := &JSONLSink{enc: enc}
	if c, ok := w.(io.Closer); ok {
		sink.closer = c
	}
	return sink
}

// CreateJSONL truncates or creates path and returns a sink writing to it.
func CreateJSONL(path string) (*JSONLSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return NewJSONLSink(f), nil
}

func (s *JSONLSink) Write(passage models.Passage) error {
	return s.enc.Encode(passage)
}

func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// MultiSink hands every record to each of its sinks in order.
type MultiSink []types.Sink

func (m MultiSink) Write(passage models.Passage) error {
	for _, sink := range m {
		if err := sink.Write(passage); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
