package skills

import (
	"context"
	"errors"

	"jarvis/internal/media"
)

type music struct {
	player Music
}

func (m *music) play(ctx context.Context, command string) (string, error) {
	if m.player == nil {
		return "Sorry, music is not available.", nil
	}

	query := remainder(command, "play")
	name, err := m.player.Play(ctx, query)
	switch {
	case errors.Is(err, media.ErrNotFound):
		return "Song '" + query + "' not found.", nil
	case errors.Is(err, media.ErrEmpty):
		return "Your music library is empty.", nil
	case err != nil:
		return "", err
	}

	return "Playing " + name + ".", nil
}

func (m *music) stop(context.Context, string) (string, error) {
	if m.player == nil {
		return "Nothing is playing.", nil
	}

	if err := m.player.Stop(); err != nil {
		if errors.Is(err, media.ErrNotPlaying) {
			return "Nothing is playing.", nil
		}
		return "", err
	}
	return "Music stopped.", nil
}
