package skills

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"path/filepath"
	"time"
)

type screenshot struct {
	run     Runner
	dir     string
	clock   func() time.Time
	notify  func(ctx context.Context, summary, body string) error
	enabled bool
}

// take tries grim (Wayland) then scrot (X11).
func (s *screenshot) take(ctx context.Context, _ string) (string, error) {
	if !s.enabled {
		return "Sorry, screenshot is not supported on this system.", nil
	}

	name := "screenshot_" + s.clock().Format("20060102_150405") + ".png"
	path := filepath.Join(s.dir, name)

	var errs []error
	for _, tool := range []string{"grim", "scrot"} {
		_, err := s.run(ctx, tool, path)
		if err == nil {
			if s.notify != nil {
				if err := s.notify(ctx, "Screenshot saved", path); err != nil {
					log.Debug("Notification failed", "err", err)
				}
			}
			return "Screenshot saved as " + name + ".", nil
		}
		errs = append(errs, err)
	}

	return "", fmt.Errorf("screenshot: %w", errors.Join(errs...))
}
