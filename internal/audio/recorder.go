// Package audio captures speech from the default input device.
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = time.Second * frameSize / SampleRate
)

// ErrNoSpeech is returned when nobody starts talking before the wait limit.
var ErrNoSpeech = errors.New("no speech detected")

type Options struct {
	// WaitTimeout bounds the silence before speech starts.
	WaitTimeout time.Duration
	// MaxLength bounds the utterance itself.
	MaxLength time.Duration
	// Silence ends the utterance once speech has started.
	Silence   time.Duration
	Threshold float64
}

func (o Options) withDefaults() Options {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 5 * time.Second
	}
	if o.MaxLength <= 0 {
		o.MaxLength = 10 * time.Second
	}
	if o.Silence <= 0 {
		o.Silence = 600 * time.Millisecond
	}
	if o.Threshold <= 0 {
		o.Threshold = 0.015
	}
	return o
}

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record returns mono 16 kHz samples of one utterance.
func (r *Recorder) Record(ctx context.Context, opt Options) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	seg := newSegmenter(opt.withDefaults())

	for ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}

		if done := seg.push(buf); done {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return seg.result()
}
