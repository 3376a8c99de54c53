package listen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Console reads one utterance per line, e.g. from a terminal.
type Console struct {
	lines  chan string
	prompt io.Writer
}

// NewConsole starts reading r. Prompts go to w when it is not nil.
func NewConsole(r io.Reader, w io.Writer) *Console {
	c := &Console{lines: make(chan string, 16), prompt: w}

	go func() {
		defer close(c.lines)

		sc := bufio.NewScanner(r)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
	}()

	return c
}

func (c *Console) Listen(ctx context.Context, limit time.Duration) (string, error) {
	if c.prompt != nil {
		fmt.Fprint(c.prompt, "You: ")
	}

	var timeout <-chan time.Time
	if limit > 0 {
		t := time.NewTimer(limit)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeout:
		return "", ErrTimeout
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrClosed
		}
		return normalize(line)
	}
}

func normalize(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", ErrUnintelligible
	}
	return s, nil
}
