// Package mic listens through the microphone and whisper.
package mic

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"jarvis/internal/audio"
	"jarvis/internal/listen"
)

type Recorder interface {
	Record(ctx context.Context, opt audio.Options) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

type Mic struct {
	rec       Recorder
	stt       Transcriber
	maxLength time.Duration
}

// New listens with rec and transcribes with stt. Utterances are cut at
// maxLength.
func New(rec Recorder, stt Transcriber, maxLength time.Duration) *Mic {
	if maxLength <= 0 {
		maxLength = 10 * time.Second
	}
	return &Mic{rec: rec, stt: stt, maxLength: maxLength}
}

// Listen waits up to limit for speech to start.
func (m *Mic) Listen(ctx context.Context, limit time.Duration) (string, error) {
	pcm, err := m.rec.Record(ctx, audio.Options{WaitTimeout: limit, MaxLength: m.maxLength})
	if err != nil {
		if errors.Is(err, audio.ErrNoSpeech) {
			return "", listen.ErrTimeout
		}
		return "", fmt.Errorf("record: %w", err)
	}

	start := time.Now()
	text, err := m.stt.Transcribe(ctx, pcm)
	if err != nil {
		log.Warn("Transcription failed", "err", err)
		return "", listen.ErrUnintelligible
	}
	log.Debug("Transcribed", "text", text, "took", time.Since(start))

	if text == "" {
		return "", listen.ErrUnintelligible
	}

	return text, nil
}
