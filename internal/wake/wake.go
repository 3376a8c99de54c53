// Package wake decides whether a short transcribed fragment addressed the
// assistant.
package wake

import (
	"strings"

	"jarvis/internal/match"
)

const DefaultThreshold = 0.7

type Detector struct {
	phrase    string
	threshold float64
}

func NewDetector(phrase string, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Detector{
		phrase:    strings.ToLower(strings.TrimSpace(phrase)),
		threshold: threshold,
	}
}

func (d *Detector) Phrase() string { return d.phrase }

// IsWakeWord is true when the wake phrase occurs verbatim in fragment, or when
// any single word of fragment scores at least the threshold against it.
func (d *Detector) IsWakeWord(fragment string) bool {
	if d.phrase == "" {
		return false
	}

	fragment = strings.ToLower(fragment)
	if strings.Contains(fragment, d.phrase) {
		return true
	}

	for _, tok := range strings.Fields(fragment) {
		tok = strings.Trim(tok, ".,!?;:\"'")
		if match.Ratio(tok, d.phrase) >= d.threshold {
			return true
		}
	}

	return false
}

// Strip removes every occurrence of the wake phrase and collapses the
// remaining whitespace.
func (d *Detector) Strip(text string) string {
	if d.phrase != "" {
		text = strings.ReplaceAll(text, d.phrase, " ")
	}

	return strings.Join(strings.Fields(text), " ")
}
