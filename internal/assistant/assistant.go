package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"jarvis/internal/listen"
)

var (
	// ErrBusy is returned when a command is already being handled.
	ErrBusy = errors.New("assistant is busy")
	// ErrStopped is returned for requests Run did not get to before exiting.
	ErrStopped = errors.New("assistant stopped")
)

const (
	msgAttention = "Yes?"
	msgNotCaught = "Sorry, I didn't catch that."
)

// Speaker hands text to speech output. Say must not block for the duration
// of playback; Wait blocks until everything queued has been spoken.
type Speaker interface {
	Say(text string)
	Wait()
}

type LoopConfig struct {
	WakeLimit      time.Duration
	CommandTimeout time.Duration
	Greeting       string
	Farewell       string
	// OnWake runs when the assistant starts paying attention, e.g. a chime.
	OnWake func()
}

// Assistant runs the listen-dispatch cycle around a Dispatcher. Only one
// command is handled at a time; concurrent callers get ErrBusy.
//
// While Run is active it is the only reader of the listener: Trigger and
// Handle hand their work to the loop instead of listening themselves.
type Assistant struct {
	disp     *Dispatcher
	listener listen.Listener
	speaker  Speaker
	cfg      LoopConfig
	busy     atomic.Bool

	mu        sync.Mutex
	running   bool
	interrupt context.CancelFunc
	requests  chan request
}

type request struct {
	text    string
	trigger bool
	done    chan error
}

func New(disp *Dispatcher, l listen.Listener, s Speaker, cfg LoopConfig) *Assistant {
	if cfg.WakeLimit <= 0 {
		cfg.WakeLimit = 3 * time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
	if cfg.Greeting == "" {
		cfg.Greeting = "Jarvis activated."
	}
	if cfg.Farewell == "" {
		cfg.Farewell = "Goodbye!"
	}

	return &Assistant{
		disp:     disp,
		listener: l,
		speaker:  s,
		cfg:      cfg,
		requests: make(chan request, 1),
	}
}

func (a *Assistant) Busy() bool { return a.busy.Load() }

// Run listens for the wake word until ctx is cancelled, then says goodbye.
func (a *Assistant) Run(ctx context.Context) error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()
	defer a.stop()

	a.speaker.Say(a.cfg.Greeting)

	for ctx.Err() == nil {
		lctx, cancel, req, ok := a.next(ctx)
		if ok {
			cancel()
			a.serve(ctx, req)
			continue
		}

		frag, err := a.listener.Listen(lctx, a.cfg.WakeLimit)
		interrupted := lctx.Err() != nil
		cancel()

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, listen.ErrClosed) {
				break
			}
			if interrupted {
				continue
			}
			if !errors.Is(err, listen.ErrTimeout) && !errors.Is(err, listen.ErrUnintelligible) {
				log.Warn("Listening failed", "err", err)
				sleep(ctx, time.Second)
			}
			continue
		}

		if !a.disp.deps.Wake.IsWakeWord(frag) {
			log.Debug("Ignored", "fragment", frag)
			continue
		}

		log.Info("Wake word detected", "fragment", frag)

		if !a.busy.CompareAndSwap(false, true) {
			log.Debug("Wake ignored, busy")
			continue
		}
		a.attend(ctx)
		a.busy.Store(false)
	}

	a.speaker.Say(a.cfg.Farewell)
	a.speaker.Wait()

	return nil
}

// next returns a queued request, or a context for the next wake listen that
// a new request will cancel.
func (a *Assistant) next(ctx context.Context) (context.Context, context.CancelFunc, request, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lctx, cancel := context.WithCancel(ctx)
	select {
	case req := <-a.requests:
		return lctx, cancel, req, true
	default:
	}

	a.interrupt = cancel
	return lctx, cancel, request{}, false
}

func (a *Assistant) serve(ctx context.Context, req request) {
	if req.trigger {
		a.attend(ctx)
	} else {
		a.handle(ctx, req.text)
	}

	a.busy.Store(false)
	req.done <- nil
}

func (a *Assistant) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.running = false
	a.interrupt = nil

	select {
	case req := <-a.requests:
		a.busy.Store(false)
		req.done <- ErrStopped
	default:
	}
}

// submit hands req to Run when it is active. It reports false when the
// caller has to do the work itself.
func (a *Assistant) submit(ctx context.Context, req request) (bool, error) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return false, nil
	}

	req.done = make(chan error, 1)
	a.requests <- req
	if a.interrupt != nil {
		a.interrupt()
	}
	a.mu.Unlock()

	select {
	case err := <-req.done:
		return true, err
	case <-ctx.Done():
		return true, ctx.Err()
	}
}

// Trigger starts listening for a command without waiting for the wake word.
func (a *Assistant) Trigger(ctx context.Context) error {
	if !a.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	if queued, err := a.submit(ctx, request{trigger: true}); queued {
		return err
	}
	defer a.busy.Store(false)

	a.attend(ctx)
	return nil
}

// Handle dispatches already-transcribed text.
func (a *Assistant) Handle(ctx context.Context, text string) error {
	if !a.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	if queued, err := a.submit(ctx, request{text: text}); queued {
		return err
	}
	defer a.busy.Store(false)

	a.handle(ctx, text)
	return nil
}

func (a *Assistant) attend(ctx context.Context) {
	if a.cfg.OnWake != nil {
		a.cfg.OnWake()
	}
	a.speaker.Say(msgAttention)
	a.speaker.Wait()

	cmd, err := a.listener.Listen(ctx, a.cfg.CommandTimeout)
	if err != nil {
		if ctx.Err() == nil {
			log.Info("No command", "err", err)
			a.speaker.Say(msgNotCaught)
		}
		return
	}

	a.handle(ctx, cmd)
}

func (a *Assistant) handle(ctx context.Context, text string) {
	log.Info("Command", "text", text)

	out := a.disp.Dispatch(ctx, text)
	a.say(out)

	if out.Pending == nil {
		return
	}

	a.speaker.Wait()

	reply, err := a.listener.Listen(ctx, a.cfg.CommandTimeout)
	if err != nil {
		log.Info("No reply to prompt", "err", err)
		reply = ""
	}

	a.say(a.disp.Resolve(ctx, reply))
}

func (a *Assistant) say(out Outcome) {
	log.Info("Handled", "stage", out.Stage.String(), "response", out.Response)
	if out.Response != "" {
		a.speaker.Say(out.Response)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
