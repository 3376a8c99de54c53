// Package tts queues responses for speech output. One utterance is spoken at
// a time; callers never block on playback unless they ask to.
package tts

import (
	"context"
	log "log/slog"
	"sync"
	"time"
)

// Synthesizer plays text and returns when playback ends.
type Synthesizer interface {
	Speak(text string) error
}

// Ducker lowers other audio while the assistant talks.
type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Speaker struct {
	synth  Synthesizer
	ducker Ducker

	// speakMu serialises every call into the synthesizer.
	speakMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	queue   chan string
	pending sync.WaitGroup
	done    chan struct{}
}

type Option func(*Speaker)

func WithDucker(d Ducker) Option {
	return func(s *Speaker) { s.ducker = d }
}

func NewSpeaker(synth Synthesizer, opts ...Option) *Speaker {
	s := &Speaker{
		synth: synth,
		queue: make(chan string, 16),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	go s.loop()

	return s
}

// Say queues text. It is dropped after Close.
func (s *Speaker) Say(text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Warn("Speaker closed, dropping", "text", text)
		return
	}

	s.pending.Add(1)
	s.queue <- text
}

// Wait blocks until everything queued so far has been spoken.
func (s *Speaker) Wait() {
	s.pending.Wait()
}

// SpeakNow speaks text on the calling goroutine, still one at a time with
// the queue.
func (s *Speaker) SpeakNow(text string) error {
	return s.speak(text)
}

// Close drains the queue and stops the worker.
func (s *Speaker) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
}

func (s *Speaker) loop() {
	defer close(s.done)

	for text := range s.queue {
		if err := s.speak(text); err != nil {
			log.Error("Failed to voice out", "err", err)
		}
		s.pending.Done()
	}
}

func (s *Speaker) speak(text string) error {
	s.speakMu.Lock()
	defer s.speakMu.Unlock()

	log.Info("Assistant", "says", text)

	if s.ducker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.ducker.Duck(ctx); err != nil {
			log.Debug("Duck failed", "err", err)
		}
		cancel()

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.ducker.Restore(ctx); err != nil {
				log.Debug("Restore failed", "err", err)
			}
		}()
	}

	return s.synth.Speak(text)
}
