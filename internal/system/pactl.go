package system

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultSink = "@DEFAULT_SINK@"
	maxPercent  = 150
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type stream struct {
	ID      int
	Volume  int
	AppName string
}

type pactl struct {
	run Runner
}

func (p pactl) changeSinkVolume(ctx context.Context, deltaPercent int) error {
	arg := fmt.Sprintf("%+d%%", deltaPercent)
	_, err := p.run(ctx, "pactl", "set-sink-volume", defaultSink, arg)
	return err
}

func (p pactl) setSinkMute(ctx context.Context, mute bool) error {
	v := "0"
	if mute {
		v = "1"
	}
	_, err := p.run(ctx, "pactl", "set-sink-mute", defaultSink, v)
	return err
}

func (p pactl) setStreamVolume(ctx context.Context, id, percent int) error {
	percent = min(max(percent, 0), maxPercent)
	_, err := p.run(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent))
	return err
}

func (p pactl) listStreams(ctx context.Context) ([]stream, error) {
	out, err := p.run(ctx, "pactl", "list", "sink-inputs")
	if err != nil {
		return nil, err
	}

	return parseSinkInputs(string(out)), nil
}

// parseSinkInputs reads the human-readable "pactl list sink-inputs" output.
// Only the first Volume line and application.name of each block are used.
func parseSinkInputs(text string) []stream {
	parts := strings.Split(text, "Sink Input #")
	if len(parts) <= 1 {
		return nil
	}

	var res []stream

	for _, block := range parts[1:] {
		newline := strings.IndexByte(block, '\n')
		if newline <= 0 {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(block[:newline]))
		if err != nil {
			continue
		}

		s := stream{ID: id}

		for _, line := range strings.Split(block[newline+1:], "\n") {
			line = strings.TrimSpace(line)

			switch {
			case strings.HasPrefix(line, "Volume:") && s.Volume == 0:
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					if v, err := strconv.Atoi(m[1]); err == nil {
						s.Volume = v
					}
				}

			case strings.HasPrefix(line, "application.name =") && s.AppName == "":
				// application.name = "Firefox"
				if i := strings.IndexByte(line, '"'); i >= 0 {
					rest := line[i+1:]
					if j := strings.IndexByte(rest, '"'); j >= 0 {
						s.AppName = rest[:j]
					}
				}
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}

		res = append(res, s)
	}

	return res
}
