// Package skills holds the concrete capabilities registered at startup.
package skills

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"jarvis/internal/capability"
	"jarvis/internal/sensitive"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Music is the part of the player the skills drive.
type Music interface {
	Play(ctx context.Context, query string) (string, error)
	Stop() error
}

type Deps struct {
	Features capability.Features

	Run    Runner
	Launch func(ctx context.Context, app string) error
	HTTP   *http.Client
	Music  Music
	Clock  func() time.Time
	// Asker writes market analyses; optional.
	Asker Asker
	// Gate keeps "open" from launching anything it flags.
	Gate *sensitive.Gate
	// Notify posts a desktop notification; optional.
	Notify func(ctx context.Context, summary, body string) error

	NewsKey       string
	NewsURL       string
	CryptoURL     string
	MarketURL     string
	ScreenshotDir string
}

func (d *Deps) defaults() {
	if d.Run == nil {
		d.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		}
	}
	if d.Launch == nil {
		d.Launch = launch
	}
	if d.HTTP == nil {
		d.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewsURL == "" {
		d.NewsURL = "https://newsapi.org/v2/"
	}
	if d.CryptoURL == "" {
		d.CryptoURL = "https://api.coingecko.com/api/v3/"
	}
	if d.MarketURL == "" {
		d.MarketURL = "https://query1.finance.yahoo.com/"
	}
	if d.Gate == nil {
		d.Gate = sensitive.NewGate(sensitive.DefaultPhrases)
	}
	if d.ScreenshotDir == "" {
		d.ScreenshotDir = "."
	}
}

type skill struct {
	trigger string
	action  capability.Action
}

// Register adds every skill to reg.
func Register(reg *capability.Registry, d Deps) error {
	d.defaults()

	web := &web{
		run: d.Run, launch: d.Launch, gate: d.Gate,
		browser: d.Features.Enabled(capability.FeatureBrowser),
	}
	news := &news{client: d.HTTP, base: d.NewsURL, key: d.NewsKey}
	market := &market{client: d.HTTP, coinBase: d.CryptoURL, quoteBase: d.MarketURL, ai: d.Asker, web: web}
	shot := &screenshot{
		run: d.Run, dir: d.ScreenshotDir, clock: d.Clock, notify: d.Notify,
		enabled: d.Features.Enabled(capability.FeatureScreenshot),
	}
	music := &music{player: d.Music}

	all := []skill{
		{"introduce yourself", static(introduction)},
		{"help", static(helpText)},

		{"open google", web.site("https://google.com", "Google")},
		{"open youtube", web.site("https://youtube.com", "YouTube")},
		{"open github", web.site("https://github.com", "GitHub")},
		{"open wikipedia", web.site("https://wikipedia.org", "Wikipedia")},
		{"search for", web.search},
		{"open", web.open},

		{"play", music.play},
		{"stop music", music.stop},

		{"screenshot", shot.take},

		{"tech news", news.category("technology")},
		{"sports news", news.category("sports")},
		{"news", news.category("general")},


		{"time", func(context.Context, string) (string, error) {
			return "The time is " + d.Clock().Format("3:04 PM") + ".", nil
		}},
		{"date", func(context.Context, string) (string, error) {
			return "Today is " + d.Clock().Format("Monday, January 2") + ".", nil
		}},
	}

	for _, a := range assets {
		all = append(all, skill{a.trigger, market.report(a.asset)})
	}

	for _, s := range all {
		if err := reg.Register(s.trigger, s.action); err != nil {
			return fmt.Errorf("register skill: %w", err)
		}
	}

	return nil
}

const introduction = "I am Jarvis, your voice assistant. I can browse the web, play music, " +
	"control your computer and answer questions. Say 'help' for options."

var helpText = strings.Join([]string{
	"Here is what I can do.",
	"Web: open google, open youtube, search for something, open an app.",
	"Music: play a song, pause, next song, stop music, list songs.",
	"System: volume up or down, mute, brightness, lock screen, screenshot.",
	"Info: news, tech news, sports news, time, date, or just ask me a question.",
	"Markets: gold, bitcoin, apple, crude oil, nifty, bank nifty, reliance.",
	"Memory: remember that, what do you remember, show history.",
}, " ")

func static(text string) capability.Action {
	return func(context.Context, string) (string, error) { return text, nil }
}

// remainder returns what follows trigger in command.
func remainder(command, trigger string) string {
	_, after, ok := strings.Cut(command, trigger)
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}
