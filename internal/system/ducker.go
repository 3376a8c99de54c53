package system

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

type fade struct {
	id       int
	from, to int
}

// Ducker lowers every other application's playback while the assistant
// speaks and brings it back afterwards. Streams owned by selfNames
// (application.name) are left alone.
type Ducker struct {
	mu        sync.Mutex
	pa        pactl
	selfNames []string
	factor    float64
	floor     int
	duration  time.Duration

	active   bool
	original map[int]int
}

type DuckerConfig struct {
	SelfNames []string
	// Factor scales other streams' volume, e.g. 0.3.
	Factor float64
	// Floor is the lowest volume a ducked stream is set to, in percent.
	Floor    int
	Duration time.Duration
}

func NewDucker(run Runner, cfg DuckerConfig) *Ducker {
	if run == nil {
		run = ExecRunner
	}
	if cfg.Factor <= 0 || cfg.Factor > 1 {
		cfg.Factor = 0.3
	}

	return &Ducker{
		pa:        pactl{run: run},
		selfNames: slices.Clone(cfg.SelfNames),
		factor:    cfg.Factor,
		floor:     min(max(cfg.Floor, 0), maxPercent),
		duration:  cfg.Duration,
		original:  make(map[int]int),
	}
}

// Duck fades other streams down. Calling it while already ducked is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.pa.listStreams(ctx)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}

	d.original = make(map[int]int)

	var fades []fade
	for _, s := range streams {
		if slices.Contains(d.selfNames, s.AppName) {
			continue
		}

		target := math.Max(float64(s.Volume)*d.factor, float64(d.floor))
		target = math.Min(target, maxPercent)

		d.original[s.ID] = s.Volume
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: int(math.Round(target))})
	}

	if err := d.apply(ctx, fades); err != nil {
		return err
	}

	d.active = true
	return nil
}

// Restore fades ducked streams back to their original volume. Streams that
// appeared after Duck are not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.pa.listStreams(ctx)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}

	var fades []fade
	for _, s := range streams {
		orig, ok := d.original[s.ID]
		if !ok || slices.Contains(d.selfNames, s.AppName) {
			continue
		}
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.apply(ctx, fades); err != nil {
		return err
	}

	d.original = make(map[int]int)
	d.active = false
	return nil
}

// apply steps every stream from its start to its target volume over the
// configured duration, 10ms per step.
func (d *Ducker) apply(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	const minStep = 10 * time.Millisecond

	steps := max(int(d.duration/minStep), 1)
	if d.duration <= 0 {
		steps = 1
	}
	pause := d.duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.pa.setStreamVolume(ctx, f.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}

		if i < steps && pause > 0 {
			time.Sleep(pause)
		}
	}

	return nil
}
