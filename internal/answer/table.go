// Package answer holds canned replies for common questions.
package answer

import (
	"strings"
	"time"

	"jarvis/internal/match"
)

const DefaultThreshold = 0.6

// Entry pairs a canonical question with its answer template. Templates may
// contain {time} and {date}.
type Entry struct {
	Question string
	Answer   string
}

type Table struct {
	entries   []Entry
	threshold float64
	now       func() time.Time
}

type Option func(*Table)

// WithClock overrides the time source used for placeholders.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

func WithThreshold(v float64) Option {
	return func(t *Table) {
		if v > 0 {
			t.threshold = v
		}
	}
}

func NewTable(entries []Entry, opts ...Option) *Table {
	t := &Table{
		threshold: DefaultThreshold,
		now:       time.Now,
	}
	for _, e := range entries {
		q := strings.ToLower(strings.TrimSpace(e.Question))
		if q == "" {
			continue
		}
		t.entries = append(t.entries, Entry{Question: q, Answer: e.Answer})
	}
	for _, o := range opts {
		o(t)
	}

	return t
}

// Defaults is the built-in question set.
func Defaults() []Entry {
	return []Entry{
		{"what time is it", "It is {time}."},
		{"what is the time", "It is {time}."},
		{"what is the date", "Today is {date}."},
		{"what day is it", "Today is {date}."},
		{"who are you", "I am Jarvis, your voice assistant."},
		{"what is your name", "My name is Jarvis."},
		{"who made you", "I was built by a developer who wanted a voice-driven shell."},
		{"how are you", "All systems are running normally."},
		{"what can you do", "I can open websites, play music, control volume, take screenshots, read the news and answer questions."},
	}
}

// Lookup returns the answer whose question appears inside q, in insertion
// order. Failing that, the question most similar to q wins if its score is
// above the threshold.
func (t *Table) Lookup(q string) (string, bool) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return "", false
	}

	for _, e := range t.entries {
		if strings.Contains(q, e.Question) {
			return t.expand(e.Answer), true
		}
	}

	var (
		best  Entry
		score float64
	)
	for _, e := range t.entries {
		if s := match.Ratio(q, e.Question); s > score {
			best, score = e, s
		}
	}
	if score <= t.threshold {
		return "", false
	}

	return t.expand(best.Answer), true
}

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) expand(tmpl string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}

	now := t.now()
	r := strings.NewReplacer(
		"{time}", now.Format("3:04 PM"),
		"{date}", now.Format("Monday, January 2"),
	)

	return r.Replace(tmpl)
}
