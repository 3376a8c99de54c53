// Package media keeps the music library and plays it through the default
// output device.
package media

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jarvis/internal/match"
)

// FindThreshold is the similarity a query needs to pick a song by ear.
const FindThreshold = 0.6

type Song struct {
	Name string
	Path string
	URL  string
}

func (s Song) Remote() bool { return s.URL != "" }

type Library struct {
	songs []Song
}

// NewLibrary orders songs by name and drops nameless or duplicate ones.
func NewLibrary(songs []Song) *Library {
	seen := make(map[string]bool, len(songs))
	out := make([]Song, 0, len(songs))
	for _, s := range songs {
		s.Name = strings.ToLower(strings.TrimSpace(s.Name))
		if s.Name == "" || seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return &Library{songs: out}
}

// Scan collects playable files in dir and adds the named URLs. A missing
// dir yields a library of URLs only.
func Scan(dir string, urls map[string]string) (*Library, error) {
	var songs []Song

	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn("Music directory not found", "dir", dir)
	case err != nil:
		return nil, fmt.Errorf("scan music: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		songs = append(songs, Song{Name: songName(e.Name()), Path: filepath.Join(dir, e.Name())})
	}
	for name, u := range urls {
		songs = append(songs, Song{Name: name, URL: u})
	}

	return NewLibrary(songs), nil
}

// songName turns "Imagine_Dragons-Believer.mp3" into "imagine dragons believer".
func songName(file string) string {
	name := strings.TrimSuffix(file, filepath.Ext(file))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (l *Library) Len() int { return len(l.songs) }

func (l *Library) Names() []string {
	names := make([]string, len(l.songs))
	for i, s := range l.songs {
		names[i] = s.Name
	}
	return names
}

// Find matches the query exactly, then as a substring of a name, then by
// similarity.
func (l *Library) Find(query string) (Song, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Song{}, false
	}

	for _, s := range l.songs {
		if s.Name == query {
			return s, true
		}
	}
	for _, s := range l.songs {
		if strings.Contains(s.Name, query) {
			return s, true
		}
	}

	best := match.Best(query, l.Names())
	if best.Found() && best.Score >= FindThreshold {
		s, _ := l.byName(best.Key)
		return s, true
	}

	return Song{}, false
}

// Next returns the song after name, wrapping around.
func (l *Library) Next(name string) (Song, bool) {
	if len(l.songs) == 0 {
		return Song{}, false
	}

	for i, s := range l.songs {
		if s.Name == name {
			return l.songs[(i+1)%len(l.songs)], true
		}
	}
	return l.songs[0], true
}

func (l *Library) byName(name string) (Song, bool) {
	for _, s := range l.songs {
		if s.Name == name {
			return s, true
		}
	}
	return Song{}, false
}
