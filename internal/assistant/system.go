package assistant

import (
	"context"
	log "log/slog"
	"strings"

	"jarvis/internal/capability"
)

// System performs device-level actions.
type System interface {
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	BrightnessUp(ctx context.Context) error
	BrightnessDown(ctx context.Context) error
	LockScreen(ctx context.Context) error
}

// Media controls music playback.
type Media interface {
	Songs() []string
	Current() (string, bool)
	// TogglePause pauses or resumes and reports whether playback is now
	// paused.
	TogglePause() (bool, error)
	// Skip moves to the next song and returns its name.
	Skip(ctx context.Context) (string, error)
}

type systemCommand struct {
	phrases []string
	feature capability.Feature
	label   string
	run     func(ctx context.Context, d *Dispatcher) (string, error)
}

func sysAction(f func(System, context.Context) error, done string) func(context.Context, *Dispatcher) (string, error) {
	return func(ctx context.Context, d *Dispatcher) (string, error) {
		if err := f(d.deps.System, ctx); err != nil {
			return "", err
		}
		return done, nil
	}
}

// Order matters: "unmute" contains "mute".
var systemCommands = []systemCommand{
	{
		phrases: []string{"volume up", "increase volume", "turn up the volume", "louder"},
		feature: capability.FeatureVolume,
		label:   "volume control",
		run:     sysAction(System.VolumeUp, "Volume increased."),
	},
	{
		phrases: []string{"volume down", "decrease volume", "turn down the volume", "quieter"},
		feature: capability.FeatureVolume,
		label:   "volume control",
		run:     sysAction(System.VolumeDown, "Volume decreased."),
	},
	{
		phrases: []string{"unmute"},
		feature: capability.FeatureVolume,
		label:   "volume control",
		run:     sysAction(System.Unmute, "Sound unmuted."),
	},
	{
		phrases: []string{"mute"},
		feature: capability.FeatureVolume,
		label:   "volume control",
		run:     sysAction(System.Mute, "Sound muted."),
	},
	{
		phrases: []string{"brightness up", "increase brightness", "brighter"},
		feature: capability.FeatureBrightness,
		label:   "brightness control",
		run:     sysAction(System.BrightnessUp, "Brightness increased."),
	},
	{
		phrases: []string{"brightness down", "decrease brightness", "dimmer"},
		feature: capability.FeatureBrightness,
		label:   "brightness control",
		run:     sysAction(System.BrightnessDown, "Brightness decreased."),
	},
	{
		phrases: []string{"lock screen", "lock the screen", "lock computer"},
		feature: capability.FeatureLock,
		label:   "screen locking",
		run:     sysAction(System.LockScreen, "Screen locked."),
	},
	{
		phrases: []string{"pause", "resume music"},
		feature: capability.FeatureMedia,
		label:   "music",
		run: func(_ context.Context, d *Dispatcher) (string, error) {
			paused, err := d.deps.Media.TogglePause()
			if err != nil {
				return "", err
			}
			if paused {
				return "Music paused.", nil
			}
			return "Music resumed.", nil
		},
	},
	{
		phrases: []string{"skip", "next song"},
		feature: capability.FeatureMedia,
		label:   "music",
		run: func(ctx context.Context, d *Dispatcher) (string, error) {
			song, err := d.deps.Media.Skip(ctx)
			if err != nil {
				return "", err
			}
			return "Playing " + song + ".", nil
		},
	},
}

func (d *Dispatcher) handleSystem(ctx context.Context, text string) (string, bool) {
	for _, sc := range systemCommands {
		if !containsAny(text, sc.phrases) {
			continue
		}

		if !d.supports(sc.feature) {
			return unsupported(sc.label), true
		}

		resp, err := sc.run(ctx, d)
		if sc.feature == capability.FeatureMedia {
			d.syncPlaying()
		}
		if err != nil {
			log.Error("System command failed", "command", text, "err", err)
			return "Sorry, I couldn't do that.", true
		}

		return resp, true
	}

	return "", false
}

func (d *Dispatcher) supports(f capability.Feature) bool {
	if !d.deps.Features.Enabled(f) {
		return false
	}
	if f == capability.FeatureMedia {
		return d.deps.Media != nil
	}

	return d.deps.System != nil
}

func unsupported(label string) string {
	return "Sorry, " + label + " is not supported on this system."
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}

	return false
}
