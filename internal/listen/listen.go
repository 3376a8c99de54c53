// Package listen provides sources of transcribed utterances: the console, a
// remote hub, and (in listen/mic) the microphone.
package listen

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout means nothing was said before the limit elapsed.
	ErrTimeout = errors.New("listen: timed out")
	// ErrUnintelligible means audio was captured but produced no text.
	ErrUnintelligible = errors.New("listen: could not understand audio")
	ErrClosed         = errors.New("listen: source closed")
)

// Listener blocks until one utterance is available or limit elapses. The
// returned text is lower-cased and trimmed.
type Listener interface {
	Listen(ctx context.Context, limit time.Duration) (string, error)
}
