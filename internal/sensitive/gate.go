// Package sensitive recognises destructive requests that must be authorized
// before they run.
package sensitive

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const AuthorizeToken = "authorize"

var DefaultPhrases = []string{
	"shutdown", "shut down", "restart", "reboot",
	"delete", "format", "uninstall", "rm -rf",
	"remove all", "erase", "wipe", "kill all",
	"poweroff", "power off", "halt",
}

type Gate struct {
	phrases []string
	token   string
}

func NewGate(phrases []string) *Gate {
	g := &Gate{token: AuthorizeToken}
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			g.phrases = append(g.phrases, p)
		}
	}

	return g
}

// Check returns the first configured phrase found in text as whole words:
// "format" matches "format the disk" but not "information".
func (g *Gate) Check(text string) (string, bool) {
	for _, p := range g.phrases {
		if containsWords(text, p) {
			return p, true
		}
	}

	return "", false
}

// Authorized reports whether a verification reply grants permission.
func (g *Gate) Authorized(reply string) bool {
	return strings.Contains(strings.ToLower(reply), g.token)
}

func (g *Gate) Challenge() string {
	return "This is a sensitive command. Say '" + g.token + "' to continue."
}

func containsWords(text, phrase string) bool {
	for off := 0; off <= len(text)-len(phrase); {
		i := strings.Index(text[off:], phrase)
		if i < 0 {
			return false
		}
		start, end := off+i, off+i+len(phrase)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		off = start + size
	}

	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
