package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xhad/stoic/internal/models"
)

const (
	MeditationsDumpName = "meditations.txt"
	LettersDumpName     = "letters.json"
)

// Dump writes the intermediate extraction results to dir for inspection:
// the meditations one per line and the letter fragments with their titles
// and links as indented JSON.
func Dump(dir string, meditations []string, letters []models.LetterFragment) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	if err := SaveLines(filepath.Join(dir, MeditationsDumpName), meditations); err != nil {
		return err
	}
	if letters == nil {
		letters = []models.LetterFragment{}
	}
	if err := SaveJSON(filepath.Join(dir, LettersDumpName), letters); err != nil {
		return err
	}

	log.Debug().Str("dir", dir).Msg("wrote extraction dumps")
	return nil
}

func SaveLines(path string, lines []string) error {
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func SaveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
