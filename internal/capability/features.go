package capability

import (
	"os/exec"
	"strings"
)

// Feature names an optional device-level ability.
type Feature string

const (
	FeatureVolume     Feature = "volume"
	FeatureBrightness Feature = "brightness"
	FeatureLock       Feature = "lock screen"
	FeatureMedia      Feature = "media"
	FeatureScreenshot Feature = "screenshot"
	FeatureBrowser    Feature = "browser"
)

// Features is the set of optional abilities resolved once at startup.
type Features map[Feature]bool

func (f Features) Enabled(name Feature) bool {
	return f[name]
}

func (f Features) String() string {
	var on []string
	for _, name := range []Feature{
		FeatureVolume, FeatureBrightness, FeatureLock,
		FeatureMedia, FeatureScreenshot, FeatureBrowser,
	} {
		if f[name] {
			on = append(on, string(name))
		}
	}

	return strings.Join(on, ",")
}

// Probe maps each feature to the external tools that can provide it.
var Probe = map[Feature][]string{
	FeatureVolume:     {"pactl"},
	FeatureBrightness: {"brightnessctl"},
	FeatureLock:       {"loginctl"},
	FeatureScreenshot: {"grim", "scrot"},
	FeatureBrowser:    {"xdg-open"},
}

// Detect resolves Probe against PATH. lookPath is exec.LookPath when nil.
// Media is always available; playback devices are checked when the player
// starts.
func Detect(lookPath func(string) (string, error)) Features {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	f := Features{FeatureMedia: true}
	for name, tools := range Probe {
		for _, tool := range tools {
			if _, err := lookPath(tool); err == nil {
				f[name] = true
				break
			}
		}
	}

	return f
}
