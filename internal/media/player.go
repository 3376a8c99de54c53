package media

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
)

const (
	PlaybackRate = 44100
	frameSize    = 1024
)

var (
	ErrNotPlaying = errors.New("nothing is playing")
	ErrEmpty      = errors.New("music library is empty")
	ErrNotFound   = errors.New("song not found")
)

type PlayerConfig struct {
	Open   OpenSink
	Decode func(path string, rate int) ([]float32, error)
	// OpenURL hands remote songs to the browser.
	OpenURL func(ctx context.Context, url string) error
}

// Player plays one song at a time from a Library.
type Player struct {
	lib *Library
	cfg PlayerConfig

	mu      sync.Mutex
	current *track
}

type track struct {
	song   Song
	cancel context.CancelFunc
	done   chan struct{}
	// resume is non-nil while paused; closing it resumes playback.
	resume chan struct{}
}

func NewPlayer(lib *Library, cfg PlayerConfig) *Player {
	if cfg.Open == nil {
		cfg.Open = PortAudio
	}
	if cfg.Decode == nil {
		cfg.Decode = DecodeFile
	}

	return &Player{lib: lib, cfg: cfg}
}

func (p *Player) Songs() []string { return p.lib.Names() }

func (p *Player) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return "", false
	}
	return p.current.song.Name, true
}

// Play starts the song best matching query, or the first one when query is
// empty. It returns the song name.
func (p *Player) Play(ctx context.Context, query string) (string, error) {
	if p.lib.Len() == 0 {
		return "", ErrEmpty
	}

	var (
		song Song
		ok   bool
	)
	if query == "" {
		song, ok = p.lib.Next("")
	} else {
		song, ok = p.lib.Find(query)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, query)
	}

	return song.Name, p.start(ctx, song)
}

// Skip moves to the next song in library order.
func (p *Player) Skip(ctx context.Context) (string, error) {
	name, _ := p.Current()

	song, ok := p.lib.Next(name)
	if !ok {
		return "", ErrEmpty
	}

	return song.Name, p.start(ctx, song)
}

// TogglePause pauses or resumes and reports whether playback is now paused.
func (p *Player) TogglePause() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.current
	if t == nil || t.song.Remote() {
		return false, ErrNotPlaying
	}

	if t.resume != nil {
		close(t.resume)
		t.resume = nil
		return false, nil
	}

	t.resume = make(chan struct{})
	return true, nil
}

// Stop ends playback and waits for the device to be released.
func (p *Player) Stop() error {
	p.mu.Lock()
	t := p.current
	p.current = nil
	p.mu.Unlock()

	if t == nil {
		return ErrNotPlaying
	}

	t.cancel()
	<-t.done
	return nil
}

func (p *Player) start(ctx context.Context, song Song) error {
	_ = p.Stop()

	if song.Remote() {
		if p.cfg.OpenURL == nil {
			return fmt.Errorf("cannot open %s", song.URL)
		}
		if err := p.cfg.OpenURL(ctx, song.URL); err != nil {
			return err
		}

		done := make(chan struct{})
		close(done)
		p.setCurrent(&track{song: song, cancel: func() {}, done: done})
		return nil
	}

	samples, err := p.cfg.Decode(song.Path, PlaybackRate)
	if err != nil {
		return err
	}

	sink, err := p.cfg.Open(PlaybackRate, frameSize)
	if err != nil {
		return err
	}

	// Playback outlives the request that started it.
	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t := &track{song: song, cancel: cancel, done: make(chan struct{})}
	p.setCurrent(t)

	go p.run(pctx, t, sink, samples)

	log.Info("Playing", "song", song.Name)
	return nil
}

func (p *Player) setCurrent(t *track) {
	p.mu.Lock()
	p.current = t
	p.mu.Unlock()
}

func (p *Player) run(ctx context.Context, t *track, sink Sink, samples []float32) {
	defer close(t.done)
	defer sink.Close()

	for off := 0; off < len(samples); off += frameSize {
		if !p.waitResumed(ctx, t) {
			return
		}

		if err := sink.Write(samples[off:min(off+frameSize, len(samples))]); err != nil {
			log.Error("Playback failed", "song", t.song.Name, "err", err)
			break
		}
	}

	p.mu.Lock()
	if p.current == t {
		p.current = nil
	}
	p.mu.Unlock()
}

// waitResumed blocks while t is paused and reports whether to keep playing.
func (p *Player) waitResumed(ctx context.Context, t *track) bool {
	p.mu.Lock()
	resume := t.resume
	p.mu.Unlock()

	if resume == nil {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case <-resume:
		return true
	}
}
