package assistant_test

import (
	"context"
	"sync"
	"time"

	"jarvis/internal/answer"
	"jarvis/internal/assistant"
	"jarvis/internal/capability"
	"jarvis/internal/listen"
)

type fakeSystem struct {
	calls []string
	err   error
}

func (f *fakeSystem) do(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeSystem) VolumeUp(context.Context) error       { return f.do("volume up") }
func (f *fakeSystem) VolumeDown(context.Context) error     { return f.do("volume down") }
func (f *fakeSystem) Mute(context.Context) error           { return f.do("mute") }
func (f *fakeSystem) Unmute(context.Context) error         { return f.do("unmute") }
func (f *fakeSystem) BrightnessUp(context.Context) error   { return f.do("brightness up") }
func (f *fakeSystem) BrightnessDown(context.Context) error { return f.do("brightness down") }
func (f *fakeSystem) LockScreen(context.Context) error     { return f.do("lock") }

type fakeMedia struct {
	songs   []string
	current string
	paused  bool
}

func (f *fakeMedia) Songs() []string { return f.songs }

func (f *fakeMedia) Current() (string, bool) { return f.current, f.current != "" }

func (f *fakeMedia) TogglePause() (bool, error) {
	f.paused = !f.paused
	return f.paused, nil
}

func (f *fakeMedia) Skip(context.Context) (string, error) {
	f.current = f.songs[len(f.songs)-1]
	return f.current, nil
}

type fakeAI struct {
	questions []string
	answer    string
}

func (f *fakeAI) Ask(_ context.Context, q string) string {
	f.questions = append(f.questions, q)
	return f.answer
}

// recorder builds actions that note every invocation.
type recorder struct {
	calls []string
}

func (r *recorder) action(name string) capability.Action {
	return func(_ context.Context, cmd string) (string, error) {
		r.calls = append(r.calls, name+": "+cmd)
		return "ran " + name, nil
	}
}

type fixture struct {
	disp  *assistant.Dispatcher
	sys   *fakeSystem
	media *fakeMedia
	ai    *fakeAI
	ran   *recorder
	reg   *capability.Registry
	clock time.Time
}

func newFixture(features capability.Features) *fixture {
	f := &fixture{
		sys:   &fakeSystem{},
		media: &fakeMedia{songs: []string{"believer", "thunder"}},
		ai:    &fakeAI{answer: "The answer is 42."},
		ran:   &recorder{},
		reg:   capability.NewRegistry(),
		clock: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}

	for _, trig := range []string{"open", "open google", "open youtube", "play", "screenshot", "news", "format disk"} {
		f.reg.MustRegister(trig, f.ran.action(trig))
	}

	if features == nil {
		features = capability.Features{
			capability.FeatureVolume: true,
			capability.FeatureMedia:  true,
		}
	}

	f.disp = assistant.NewDispatcher(assistant.Deps{
		Answers:  answer.NewTable(answer.Defaults(), answer.WithClock(func() time.Time { return f.clock })),
		Registry: f.reg,
		Features: features,
		System:   f.sys,
		Media:    f.media,
		AI:       f.ai,
	}, assistant.Options{})

	return f
}

type scriptedListener struct {
	mu      sync.Mutex
	replies []reply
	limits  []time.Duration
}

type reply struct {
	text string
	err  error
}

func (l *scriptedListener) Listen(_ context.Context, limit time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limits = append(l.limits, limit)
	if len(l.replies) == 0 {
		return "", listen.ErrClosed
	}

	r := l.replies[0]
	l.replies = l.replies[1:]
	return r.text, r.err
}

type fakeSpeaker struct {
	mu    sync.Mutex
	said  []string
	waits int
}

func (s *fakeSpeaker) Say(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
}

func (s *fakeSpeaker) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits++
}

func (s *fakeSpeaker) Said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}
