package assistant

import (
	"context"
	"fmt"
	"strings"
)

const historyShown = 3

// handleConversation covers the meta commands that talk about the assistant
// itself rather than the outside world.
func (d *Dispatcher) handleConversation(_ context.Context, text string) (string, bool) {
	st := d.deps.State

	switch {
	case strings.Contains(text, "thank"):
		return "You're welcome!", true

	case strings.Contains(text, "remember that"):
		fact := strings.TrimSpace(text[strings.Index(text, "remember that")+len("remember that"):])
		if fact == "" {
			return "What should I remember?", true
		}
		st.Remember(fact)
		return "I'll remember that " + fact + ".", true

	case strings.Contains(text, "what do you remember"):
		facts := st.Recall()
		if len(facts) == 0 {
			return "I don't remember anything yet.", true
		}
		return "You told me: " + strings.Join(facts, "; ") + ".", true

	case strings.Contains(text, "forget everything"):
		st.Forget()
		return "Okay, I've forgotten everything.", true

	case strings.Contains(text, "clear history"):
		st.ClearHistory()
		return "Command history cleared.", true

	case strings.Contains(text, "what did i say"), strings.Contains(text, "show history"):
		// The newest record is this very request.
		recs := st.History(historyShown + 1)
		if len(recs) > 0 {
			recs = recs[:len(recs)-1]
		}
		if len(recs) == 0 {
			return "There is no command history yet.", true
		}
		lines := make([]string, len(recs))
		for i, r := range recs {
			lines[i] = fmt.Sprintf("at %s: %s", r.At.Format("15:04"), r.Text)
		}
		return "Recent commands: " + strings.Join(lines, "; ") + ".", true

	case strings.Contains(text, "list songs"), strings.Contains(text, "available music"):
		return d.listSongs(), true

	case strings.Contains(text, "what song is playing"), strings.Contains(text, "what's playing"):
		if label, ok := st.Playing(); ok {
			return "Now playing " + label + ".", true
		}
		return "Nothing is playing right now.", true
	}

	return "", false
}

func (d *Dispatcher) listSongs() string {
	if d.deps.Media == nil {
		return unsupported("music")
	}

	songs := d.deps.Media.Songs()
	if len(songs) == 0 {
		return "Your music library is empty."
	}

	return "Available songs: " + strings.Join(songs, ", ") + "."
}
