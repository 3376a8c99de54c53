package assistant

import (
	"context"
	log "log/slog"
	"strings"
)

// handleQuestion answers when the text still mentions the wake phrase or
// reads like a question. Canned answers win over the AI.
func (d *Dispatcher) handleQuestion(ctx context.Context, text string) (string, bool) {
	phrase := d.deps.Wake.Phrase()
	addressed := phrase != "" && strings.Contains(text, phrase)
	if !addressed && !d.isQuestion(text) {
		return "", false
	}

	q := d.deps.Wake.Strip(text)
	if q == "" {
		return "", false
	}

	if ans, ok := d.deps.Answers.Lookup(q); ok {
		log.Debug("Predefined answer", "question", q)
		return ans, true
	}

	if d.deps.AI == nil {
		return "Sorry, I can't answer questions right now.", true
	}

	return truncate(d.deps.AI.Ask(ctx, q), d.opts.MaxResponseLength), true
}

func (d *Dispatcher) isQuestion(text string) bool {
	for _, w := range d.opts.QuestionWords {
		if containsWord(text, w) {
			return true
		}
	}

	return false
}
