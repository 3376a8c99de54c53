package notify

import (
	"context"
	"fmt"
	"os/exec"
)

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Desktop posts notifications through notify-send.
type Desktop struct {
	app string
	run Runner
}

func NewDesktop(app string, run Runner) *Desktop {
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		}
	}

	return &Desktop{app: app, run: run}
}

func (d *Desktop) Send(ctx context.Context, summary, body string) error {
	args := []string{"--app-name", d.app, "--expire-time", "3000", summary}
	if body != "" {
		args = append(args, body)
	}

	if _, err := d.run(ctx, "notify-send", args...); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}

	return nil
}
