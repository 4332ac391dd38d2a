// Package textutils provides text normalization utilities for
// transaction narrations.
package textutils

import (
	"regexp"
	"strings"
)

var nonAlpha = regexp.MustCompile(`[^a-z\s]`)

// NormalizeNarration cleans a free-text narration before classification:
// lower-cased, digits and punctuation removed, tokens joined by single
// spaces with order preserved. Empty input yields empty output.
func NormalizeNarration(narration string) string {
	narration = strings.ToLower(narration)
	narration = nonAlpha.ReplaceAllString(narration, "")
	return strings.Join(strings.Fields(narration), " ")
}
