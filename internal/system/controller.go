package system

import (
	"context"
)

const (
	volumeStep     = 10
	brightnessStep = "10%"
)

// Controller implements the assistant's device commands.
type Controller struct {
	run Runner
	pa  pactl
}

func NewController(run Runner) *Controller {
	if run == nil {
		run = ExecRunner
	}

	return &Controller{run: run, pa: pactl{run: run}}
}

func (c *Controller) VolumeUp(ctx context.Context) error {
	return c.pa.changeSinkVolume(ctx, volumeStep)
}

func (c *Controller) VolumeDown(ctx context.Context) error {
	return c.pa.changeSinkVolume(ctx, -volumeStep)
}

func (c *Controller) Mute(ctx context.Context) error {
	return c.pa.setSinkMute(ctx, true)
}

func (c *Controller) Unmute(ctx context.Context) error {
	return c.pa.setSinkMute(ctx, false)
}

func (c *Controller) BrightnessUp(ctx context.Context) error {
	_, err := c.run(ctx, "brightnessctl", "set", "+"+brightnessStep)
	return err
}

func (c *Controller) BrightnessDown(ctx context.Context) error {
	_, err := c.run(ctx, "brightnessctl", "set", brightnessStep+"-")
	return err
}

func (c *Controller) LockScreen(ctx context.Context) error {
	_, err := c.run(ctx, "loginctl", "lock-session")
	return err
}
