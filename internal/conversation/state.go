// Package conversation keeps what the user told the assistant and what they
// asked for during the life of the process.
package conversation

import (
	"time"
)

// RecallLimit is how many memories Recall returns.
const RecallLimit = 3

type Record struct {
	At   time.Time
	Text string
}

// State is owned by a single dispatcher and is not safe for concurrent use.
type State struct {
	memories []string
	history  []Record
	playing  string
	now      func() time.Time
}

func NewState() *State {
	return &State{now: time.Now}
}

// NewStateWithClock is NewState with a fixed time source for history records.
func NewStateWithClock(now func() time.Time) *State {
	return &State{now: now}
}

func (s *State) Remember(fact string) {
	s.memories = append(s.memories, fact)
}

// Recall returns up to RecallLimit of the most recent memories, oldest first.
func (s *State) Recall() []string {
	return tail(s.memories, RecallLimit)
}

func (s *State) Forget() {
	s.memories = nil
}

func (s *State) Memories() int { return len(s.memories) }

func (s *State) Record(text string) {
	s.history = append(s.history, Record{At: s.now(), Text: text})
}

// History returns up to n of the most recent records, oldest first. n <= 0
// returns all of them.
func (s *State) History(n int) []Record {
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}

	return tail(s.history, n)
}

func (s *State) ClearHistory() {
	s.history = nil
}

func (s *State) SetPlaying(label string) { s.playing = label }

func (s *State) Playing() (string, bool) {
	return s.playing, s.playing != ""
}

func tail[T any](xs []T, n int) []T {
	if len(xs) > n {
		xs = xs[len(xs)-n:]
	}

	return append([]T(nil), xs...)
}
