package answer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/answer"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestLookupSubstring(t *testing.T) {
	tbl := answer.NewTable([]answer.Entry{
		{"who are you", "first"},
		{"are you", "second"},
	})

	got, ok := tbl.Lookup("jarvis who are you")
	require.True(t, ok)
	assert.Equal(t, "first", got)

	got, ok = tbl.Lookup("are you there")
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestLookupFuzzy(t *testing.T) {
	tbl := answer.NewTable([]answer.Entry{
		{"who are you", "I am Jarvis."},
		{"what can you do", "Lots."},
	})

	got, ok := tbl.Lookup("who r you")
	require.True(t, ok)
	assert.Equal(t, "I am Jarvis.", got)

	_, ok = tbl.Lookup("play some music")
	assert.False(t, ok)

	_, ok = tbl.Lookup("")
	assert.False(t, ok)
}

func TestLookupThreshold(t *testing.T) {
	entries := []answer.Entry{{"who are you", "me"}}

	// "who are yu" scores 20/21 against "who are you".
	_, ok := answer.NewTable(entries, answer.WithThreshold(0.96)).Lookup("who are yu")
	assert.False(t, ok)

	_, ok = answer.NewTable(entries, answer.WithThreshold(0.9)).Lookup("who are yu")
	assert.True(t, ok)
}

func TestPlaceholdersExpandAtLookup(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)
	clock := ts
	tbl := answer.NewTable(answer.Defaults(), answer.WithClock(func() time.Time { return clock }))

	got, ok := tbl.Lookup("jarvis what time is it")
	require.True(t, ok)
	assert.Equal(t, "It is 2:07 PM.", got)

	clock = ts.Add(time.Hour)
	got, _ = tbl.Lookup("what time is it")
	assert.Equal(t, "It is 3:07 PM.", got)

	got, ok = answer.NewTable(answer.Defaults(), answer.WithClock(fixedClock(ts))).Lookup("what is the date")
	require.True(t, ok)
	assert.Equal(t, "Today is Tuesday, March 5.", got)
}

func TestEmptyQuestionsDropped(t *testing.T) {
	tbl := answer.NewTable([]answer.Entry{{"  ", "x"}, {"Hi There", "y"}})
	assert.Equal(t, 1, tbl.Len())

	got, ok := tbl.Lookup("oh hi there")
	require.True(t, ok)
	assert.Equal(t, "y", got)
}
