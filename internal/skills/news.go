package skills

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	newsUnavailable = "News unavailable currently."
	headlines       = 3
)

type news struct {
	client *http.Client
	base   string
	key    string
}

type newsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

func (n *news) category(cat string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		titles, err := n.top(ctx, cat)
		if err != nil {
			log.Warn("News API failed", "category", cat, "err", err)
			return newsUnavailable, nil
		}
		if len(titles) == 0 {
			return newsUnavailable, nil
		}

		parts := make([]string, len(titles))
		for i, t := range titles {
			parts[i] = fmt.Sprintf("Headline %d: %s.", i+1, t)
		}
		return strings.Join(parts, " "), nil
	}
}

func (n *news) top(ctx context.Context, cat string) ([]string, error) {
	if n.key == "" {
		return nil, fmt.Errorf("no news API key")
	}

	q := url.Values{
		"country":  {"us"},
		"category": {cat},
		"pageSize": {fmt.Sprint(headlines)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"top-headlines?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.key)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status == "error" {
		return nil, fmt.Errorf("news api: %s: %s", resp.Status, body.Message)
	}

	var titles []string
	for _, a := range body.Articles {
		// "Title - Source" -> "Title"
		t, _, _ := strings.Cut(a.Title, " - ")
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
		if len(titles) == headlines {
			break
		}
	}
	return titles, nil
}
