package listen

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"jarvis/internal/bus"
)

// Hub is the part of the bus client Remote needs.
type Hub interface {
	Inbox() <-chan bus.Message
	Done() <-chan struct{}
	Send(bus.Message) error
}

// Remote takes utterances from the hub and answers whoever spoke last. It is
// both a Listener and a speaker.
type Remote struct {
	hub Hub

	mu   sync.Mutex
	peer string
}

func NewRemote(h Hub) *Remote {
	return &Remote{hub: h}
}

func (r *Remote) Listen(ctx context.Context, limit time.Duration) (string, error) {
	var timeout <-chan time.Time
	if limit > 0 {
		t := time.NewTimer(limit)
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-r.hub.Done():
			return "", ErrClosed
		case <-timeout:
			return "", ErrTimeout
		case m := <-r.hub.Inbox():
			if m.Kind != bus.KindUtterance {
				log.Debug("Skipping bus message", "kind", m.Kind, "from", m.From)
				continue
			}

			r.mu.Lock()
			r.peer = m.From
			r.mu.Unlock()

			return normalize(m.Content)
		}
	}
}

func (r *Remote) Say(text string) {
	r.mu.Lock()
	to := r.peer
	r.mu.Unlock()
	if to == "" {
		to = bus.Broadcast
	}

	err := r.hub.Send(bus.Message{To: to, Kind: bus.KindReply, Content: text})
	if err != nil {
		log.Error("Failed to send reply", "err", err)
	}
}

// Wait returns at once; the hub delivers replies asynchronously.
func (r *Remote) Wait() {}
