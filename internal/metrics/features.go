// Package metrics derives privacy-safe size features from user text and history.
package metrics

import (
	"strings"
	"unicode/utf8"
)

// FeaturesVersion changes whenever the meaning of a field changes.
const FeaturesVersion = "1"

// TextFeatures holds byte, rune, word and line counts of a string.
type TextFeatures struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

func Measure(s string) TextFeatures {
	return TextFeatures{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// Fields renders f for a telemetry event.
func (f TextFeatures) Fields() map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
