package skills

import (
	"context"
	"fmt"
	log "log/slog"
	"net/url"
	"os/exec"
	"regexp"
	"strings"

	"jarvis/internal/sensitive"
)

type web struct {
	run     Runner
	launch  func(ctx context.Context, app string) error
	gate    *sensitive.Gate
	browser bool
}

func (w *web) browse(ctx context.Context, u string) error {
	if !w.browser {
		return fmt.Errorf("no browser opener for %s", u)
	}
	_, err := w.run(ctx, "xdg-open", u)
	return err
}

func (w *web) site(u, name string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		if err := w.browse(ctx, u); err != nil {
			return "", err
		}
		return "Opening " + name + ".", nil
	}
}

func (w *web) search(ctx context.Context, command string) (string, error) {
	q := remainder(command, "search for")
	if q == "" {
		return "What should I search for?", nil
	}

	if err := w.browse(ctx, "https://www.google.com/search?q="+url.QueryEscape(q)); err != nil {
		return "", err
	}
	return "Searching for " + q + ".", nil
}

// open launches an installed application, or searches the web for it.
func (w *web) open(ctx context.Context, command string) (string, error) {
	app := remainder(command, "open")
	if app == "" {
		return "What should I open?", nil
	}

	if phrase, ok := w.gate.Check(app); ok {
		log.Warn("Refused to launch", "app", app, "phrase", phrase)
		return "Sorry, I won't open " + app + ".", nil
	}

	if err := w.launch(ctx, app); err == nil {
		return "Opening " + app + ".", nil
	}

	if err := w.browse(ctx, "https://www.google.com/search?q="+url.QueryEscape(app)); err != nil {
		return "", err
	}
	return "Searching for " + app + ".", nil
}

var desktopID = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// launch starts the desktop entry named app through gtk-launch, so only
// installed applications with a .desktop file can be opened. Plain
// executables on PATH are never run directly.
func launch(_ context.Context, app string) error {
	id := strings.ReplaceAll(strings.TrimSpace(app), " ", "-")
	if !desktopID.MatchString(id) {
		return fmt.Errorf("invalid application name %q", app)
	}

	path, err := exec.LookPath("gtk-launch")
	if err != nil {
		return err
	}

	// gtk-launch exits once the application is up; it fails when no
	// matching desktop entry exists.
	return exec.Command(path, id).Run()
}
