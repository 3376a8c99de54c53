package stt

import (
	"regexp"
	"strings"
)

// Markers whisper emits for non-speech, e.g. [BLANK_AUDIO], (music), *coughs*.
var markerRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// Clean joins segments, drops non-speech markers and surrounding punctuation,
// and lower-cases the result.
func Clean(segments ...string) string {
	text := strings.Join(segments, " ")
	text = markerRe.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, " .,!?;:-\"'")

	return strings.ToLower(text)
}
