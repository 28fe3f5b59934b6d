// Package processor holds the ordered string transformations the extractors
// are assembled from. Steps are pure functions over the whole document text.
package processor

import (
	"regexp"
	"strings"
)

// Step transforms the complete text of a document.
type Step func(text string) string

// Pipeline applies its steps left to right.
type Pipeline struct {
	steps []Step
}

func New(steps ...Step) Pipeline {
	return Pipeline{steps: steps}
}

func (p Pipeline) Apply(text string) string {
	for _, step := range p.steps {
		text = step(text)
	}
	return text
}

// After keeps the text following the first occurrence of marker. Text
// without the marker is returned unchanged.
func After(marker string) Step {
	return func(text string) string {
		if _, after, found := strings.Cut(text, marker); found {
			return after
		}
		return text
	}
}

// Before keeps the text preceding the first occurrence of marker.
func Before(marker string) Step {
	return func(text string) string {
		before, _, _ := strings.Cut(text, marker)
		return before
	}
}

func Remove(pattern *regexp.Regexp) Step {
	return func(text string) string {
		return pattern.ReplaceAllString(text, "")
	}
}

// Replace substitutes non-overlapping occurrences of old in a single left to
// right pass, so a run of four spaces replaced as "  " -> " " yields two.
func Replace(old, new string) Step {
	return func(text string) string {
		return strings.ReplaceAll(text, old, new)
	}
}

func Split(text, sep string) []string {
	return strings.Split(text, sep)
}

func Map(units []string, fn func(string) string) []string {
	out := make([]string, 0, len(units))
	for _, unit := range units {
		out = append(out, fn(unit))
	}
	return out
}

func Filter(units []string, keep func(string) bool) []string {
	var out []string
	for _, unit := range units {
		if keep(unit) {
			out = append(out, unit)
		}
	}
	return out
}
