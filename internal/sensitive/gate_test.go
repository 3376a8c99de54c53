package sensitive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jarvis/internal/sensitive"
)

func TestCheck(t *testing.T) {
	g := sensitive.NewGate(sensitive.DefaultPhrases)

	p, ok := g.Check("format the usb drive")
	assert.True(t, ok)
	assert.Equal(t, "format", p)

	p, ok = g.Check("please shut down the computer")
	assert.True(t, ok)
	assert.Equal(t, "shut down", p)

	_, ok = g.Check("open google")
	assert.False(t, ok)
}

func TestAuthorized(t *testing.T) {
	g := sensitive.NewGate(nil)

	assert.True(t, g.Authorized("i authorize it"))
	assert.True(t, g.Authorized("Authorize"))
	assert.False(t, g.Authorized("yes"))
	assert.False(t, g.Authorized(""))
	assert.Contains(t, g.Challenge(), "authorize")
}

func TestBlankPhrasesIgnored(t *testing.T) {
	g := sensitive.NewGate([]string{"", "  ", "Wipe"})

	_, ok := g.Check("anything at all")
	assert.False(t, ok)

	p, ok := g.Check("wipe the disk")
	assert.True(t, ok)
	assert.Equal(t, "wipe", p)
}

func TestCheckWholeWords(t *testing.T) {
	g := sensitive.NewGate(sensitive.DefaultPhrases)

	for _, text := range []string{
		"give me information on mars",
		"what is the weather in halten bay",
		"undeleted files",
		"the restarting of the league",
	} {
		_, ok := g.Check(text)
		assert.False(t, ok, text)
	}

	for text, want := range map[string]string{
		"format":                      "format",
		"format, then reboot":         "format",
		"information about format c":  "format",
		"please rm -rf the build dir": "rm -rf",
		"open poweroff":               "poweroff",
		"halt":                        "halt",
		"power off the pc":            "power off",
	} {
		p, ok := g.Check(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, p, text)
	}
}
