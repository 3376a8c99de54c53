// Package capability keeps the ordered set of actions the dispatcher can
// invoke by trigger phrase.
package capability

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"strings"
	"sync"
)

var (
	ErrEmptyTrigger     = errors.New("empty trigger")
	ErrDuplicateTrigger = errors.New("duplicate trigger")
	ErrNilAction        = errors.New("nil action")
)

// Action performs a capability's side effect for the raw command text and
// returns what should be spoken back.
type Action func(ctx context.Context, command string) (string, error)

type Capability struct {
	Trigger string
	Action  Action

	seq int
}

// Registry orders capabilities by specificity: longer triggers first, then
// registration order. A shorter trigger therefore never shadows a longer one
// that contains it.
type Registry struct {
	mu    sync.RWMutex
	caps  []Capability
	index map[string]struct{}
	seq   int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]struct{})}
}

func (r *Registry) Register(trigger string, action Action) error {
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	if trigger == "" {
		return ErrEmptyTrigger
	}
	if action == nil {
		return fmt.Errorf("%w for %q", ErrNilAction, trigger)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[trigger]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTrigger, trigger)
	}

	r.index[trigger] = struct{}{}
	r.caps = append(r.caps, Capability{Trigger: trigger, Action: action, seq: r.seq})
	r.seq++

	sort.SliceStable(r.caps, func(i, j int) bool {
		li, lj := len(r.caps[i].Trigger), len(r.caps[j].Trigger)
		if li != lj {
			return li > lj
		}
		return r.caps[i].seq < r.caps[j].seq
	})

	return nil
}

// MustRegister panics on registration errors. Use it only for the static
// startup set.
func (r *Registry) MustRegister(trigger string, action Action) {
	if err := r.Register(trigger, action); err != nil {
		panic(err)
	}
}

// Triggers returns every trigger in dispatch order.
func (r *Registry) Triggers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.caps))
	for i, c := range r.caps {
		out[i] = c.Trigger
	}

	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.caps)
}

// Get returns the capability registered under trigger.
func (r *Registry) Get(trigger string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.caps {
		if c.Trigger == trigger {
			return c, true
		}
	}

	return Capability{}, false
}

// Match returns the first capability, in dispatch order, whose trigger is
// contained in text.
func (r *Registry) Match(text string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.caps {
		if strings.Contains(text, c.Trigger) {
			return c, true
		}
	}

	return Capability{}, false
}

// Invoke runs the capability and converts a failure into an apology, so the
// caller always gets something to say.
func (c Capability) Invoke(ctx context.Context, command string) string {
	out, err := c.Action(ctx, command)
	if err != nil {
		log.Error("Capability failed", "trigger", c.Trigger, "err", err)
		return fmt.Sprintf("Sorry, %s failed.", c.Trigger)
	}

	return out
}
