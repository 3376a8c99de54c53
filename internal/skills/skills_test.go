package skills_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/ai"
	"jarvis/internal/capability"
	"jarvis/internal/media"
	"jarvis/internal/sensitive"
	"jarvis/internal/skills"
)

type commands struct {
	ran  []string
	fail map[string]bool
}

func (c *commands) run(_ context.Context, name string, args ...string) ([]byte, error) {
	c.ran = append(c.ran, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if c.fail[name] {
		return nil, errors.New(name + " failed")
	}
	return nil, nil
}

type fakeMusic struct {
	played  []string
	stopped int
	err     error
}

func (m *fakeMusic) Play(_ context.Context, q string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.played = append(m.played, q)
	if q == "" {
		return "believer", nil
	}
	return q, nil
}

func (m *fakeMusic) Stop() error {
	m.stopped++
	return m.err
}

type env struct {
	reg      *capability.Registry
	cmds     *commands
	music    *fakeMusic
	launched []string
	notified []string
}

var allFeatures = capability.Features{
	capability.FeatureBrowser:    true,
	capability.FeatureScreenshot: true,
	capability.FeatureMedia:      true,
}

func setup(t *testing.T, d skills.Deps) *env {
	t.Helper()

	e := &env{reg: capability.NewRegistry(), cmds: &commands{fail: map[string]bool{}}, music: &fakeMusic{}}
	if d.Features == nil {
		d.Features = allFeatures
	}
	d.Run = e.cmds.run
	d.Music = e.music
	d.Clock = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	d.Launch = func(_ context.Context, app string) error {
		if app != "firefox" {
			return errors.New("not installed")
		}
		e.launched = append(e.launched, app)
		return nil
	}
	d.Notify = func(_ context.Context, summary, body string) error {
		e.notified = append(e.notified, summary+": "+body)
		return nil
	}
	d.ScreenshotDir = "/tmp/shots"

	require.NoError(t, skills.Register(e.reg, d))
	return e
}

func (e *env) do(t *testing.T, command string) string {
	t.Helper()

	c, ok := e.reg.Match(command)
	require.True(t, ok, command)
	return c.Invoke(context.Background(), command)
}

func TestRegisterOrder(t *testing.T) {
	e := setup(t, skills.Deps{})

	triggers := e.reg.Triggers()
	assert.Len(t, triggers, 24)
	assert.Equal(t, "introduce yourself", triggers[0])
	assert.Equal(t, "btc", triggers[len(triggers)-1])

	// Re-registering collides.
	assert.ErrorIs(t, skills.Register(e.reg, skills.Deps{}), capability.ErrDuplicateTrigger)
}

func TestWeb(t *testing.T) {
	e := setup(t, skills.Deps{})

	assert.Equal(t, "Opening YouTube.", e.do(t, "open youtube please"))
	assert.Equal(t, "Opening GitHub.", e.do(t, "open github"))
	assert.Equal(t, "Searching for golang generics.", e.do(t, "search for golang generics"))
	assert.Equal(t, "What should I search for?", e.do(t, "search for"))
	assert.Equal(t, "Opening firefox.", e.do(t, "open firefox"))
	assert.Equal(t, "Searching for spotify.", e.do(t, "open spotify"))
	assert.Equal(t, "What should I open?", e.do(t, "open"))

	assert.Equal(t, []string{
		"xdg-open https://youtube.com",
		"xdg-open https://github.com",
		"xdg-open https://www.google.com/search?q=golang+generics",
		"xdg-open https://www.google.com/search?q=spotify",
	}, e.cmds.ran)
	assert.Equal(t, []string{"firefox"}, e.launched)
}

func TestOpenRefusesSensitiveApps(t *testing.T) {
	e := setup(t, skills.Deps{})

	assert.Equal(t, "Sorry, I won't open poweroff.", e.do(t, "open poweroff"))
	assert.Equal(t, "Sorry, I won't open halt.", e.do(t, "open halt"))
	assert.Empty(t, e.launched)
	assert.Empty(t, e.cmds.ran)

	custom := setup(t, skills.Deps{Gate: sensitive.NewGate([]string{"firefox"})})
	assert.Equal(t, "Sorry, I won't open firefox.", custom.do(t, "open firefox"))
	assert.Empty(t, custom.launched)
}

func TestWebWithoutBrowser(t *testing.T) {
	e := setup(t, skills.Deps{Features: capability.Features{}})

	assert.Equal(t, "Sorry, open google failed.", e.do(t, "open google"))
	assert.Empty(t, e.cmds.ran)
}

func TestMusic(t *testing.T) {
	e := setup(t, skills.Deps{})

	assert.Equal(t, "Playing thunder.", e.do(t, "play thunder"))
	assert.Equal(t, "Playing believer.", e.do(t, "play"))
	assert.Equal(t, "Music stopped.", e.do(t, "stop music"))
	assert.Equal(t, []string{"thunder", ""}, e.music.played)

	e.music.err = media.ErrNotFound
	assert.Equal(t, "Song 'despacito' not found.", e.do(t, "play despacito"))
	e.music.err = media.ErrEmpty
	assert.Equal(t, "Your music library is empty.", e.do(t, "play anything"))
	e.music.err = media.ErrNotPlaying
	assert.Equal(t, "Nothing is playing.", e.do(t, "stop music"))
	e.music.err = errors.New("device busy")
	assert.Equal(t, "Sorry, play failed.", e.do(t, "play x"))
}

func TestScreenshot(t *testing.T) {
	e := setup(t, skills.Deps{})

	assert.Equal(t, "Screenshot saved as screenshot_20240309_140507.png.", e.do(t, "take a screenshot"))
	assert.Equal(t, []string{"grim /tmp/shots/screenshot_20240309_140507.png"}, e.cmds.ran)
	assert.Equal(t, []string{"Screenshot saved: /tmp/shots/screenshot_20240309_140507.png"}, e.notified)

	e.cmds.ran = nil
	e.cmds.fail["grim"] = true
	assert.Equal(t, "Screenshot saved as screenshot_20240309_140507.png.", e.do(t, "screenshot"))
	assert.Equal(t, []string{
		"grim /tmp/shots/screenshot_20240309_140507.png",
		"scrot /tmp/shots/screenshot_20240309_140507.png",
	}, e.cmds.ran)

	e.cmds.fail["scrot"] = true
	assert.Equal(t, "Sorry, screenshot failed.", e.do(t, "screenshot"))
}

func TestScreenshotUnsupported(t *testing.T) {
	e := setup(t, skills.Deps{Features: capability.Features{capability.FeatureBrowser: true}})

	assert.Equal(t, "Sorry, screenshot is not supported on this system.", e.do(t, "screenshot"))
	assert.Empty(t, e.cmds.ran)
}

func TestNews(t *testing.T) {
	var gotPath, gotKey, gotCategory string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotCategory = r.URL.Query().Get("category")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Go 1.30 released - The Go Blog"},
			{"title":""},
			{"title":"Rust adds feature - Example News"},
			{"title":"Chips get faster"},
			{"title":"Fourth story"}
		]}`))
	}))
	defer srv.Close()

	e := setup(t, skills.Deps{NewsKey: "k3y", NewsURL: srv.URL + "/v2/"})

	assert.Equal(t,
		"Headline 1: Go 1.30 released. Headline 2: Rust adds feature. Headline 3: Chips get faster.",
		e.do(t, "tell me the tech news"))
	assert.Equal(t, "/v2/top-headlines", gotPath)
	assert.Equal(t, "k3y", gotKey)
	assert.Equal(t, "technology", gotCategory)

	e.do(t, "sports news")
	assert.Equal(t, "sports", gotCategory)
	e.do(t, "news")
	assert.Equal(t, "general", gotCategory)
}

func TestNewsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","message":"apiKey invalid"}`))
	}))
	defer srv.Close()

	e := setup(t, skills.Deps{NewsKey: "bad", NewsURL: srv.URL + "/"})
	assert.Equal(t, "News unavailable currently.", e.do(t, "news"))

	noKey := setup(t, skills.Deps{NewsURL: srv.URL + "/"})
	assert.Equal(t, "News unavailable currently.", noKey.do(t, "news"))
}

func TestInfo(t *testing.T) {
	e := setup(t, skills.Deps{})

	assert.Equal(t, "The time is 2:05 PM.", e.do(t, "time"))
	assert.Equal(t, "Today is Saturday, March 9.", e.do(t, "date"))
	assert.Contains(t, e.do(t, "help"), "open google")
	assert.Contains(t, e.do(t, "introduce yourself"), "I am Jarvis")
}

type fakeAsker struct {
	prompts []string
	answer  string
}

func (a *fakeAsker) Ask(_ context.Context, q string) string {
	a.prompts = append(a.prompts, q)
	return a.answer
}

func coinServer(t *testing.T, status int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"bitcoin":{"usd":64123.456,"usd_24h_change":-2.3456}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBitcoin(t *testing.T) {
	srv := coinServer(t, http.StatusOK)
	asker := &fakeAsker{answer: "1. WAIT - no displacement yet."}

	e := setup(t, skills.Deps{CryptoURL: srv.URL + "/api/v3/", Asker: asker})
	assert.Equal(t,
		"Bitcoin is at $64123.46, down 2.35% in 24 hours. Bitcoin analysis: 1. WAIT - no displacement yet.",
		e.do(t, "how is btc doing"))
	assert.Equal(t, []string{"xdg-open https://www.tradingview.com/chart/?symbol=BTCUSD"}, e.cmds.ran)

	require.Len(t, asker.prompts, 1)
	assert.Contains(t, asker.prompts[0], "Analyze Bitcoin at $64123.46 (-2.35% change)")
}

func TestBitcoinWithoutAnalysis(t *testing.T) {
	srv := coinServer(t, http.StatusOK)

	for name, asker := range map[string]skills.Asker{
		"no asker": nil,
		"fallback": &fakeAsker{answer: ai.Fallback},
		"empty":    &fakeAsker{answer: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			e := setup(t, skills.Deps{CryptoURL: srv.URL + "/api/v3/", Asker: asker})
			assert.Equal(t,
				"Bitcoin is at $64123.46, down 2.35% in 24 hours. Detailed analysis unavailable.",
				e.do(t, "bitcoin"))
		})
	}
}

func TestBitcoinFallsBackToChart(t *testing.T) {
	srv := coinServer(t, http.StatusTooManyRequests)

	e := setup(t, skills.Deps{CryptoURL: srv.URL + "/", Asker: &fakeAsker{answer: "unused"}})
	assert.Equal(t, "Showing Bitcoin chart. Detailed analysis unavailable.", e.do(t, "bitcoin"))
	assert.Equal(t, []string{"xdg-open https://www.tradingview.com/chart/?symbol=BTCUSD"}, e.cmds.ran)

	bare := setup(t, skills.Deps{CryptoURL: srv.URL + "/", Features: capability.Features{}})
	assert.Equal(t, "Bitcoin analysis unavailable.", bare.do(t, "bitcoin"))
}

// chartJSON renders n daily candles; the last close is 105.
func chartJSON(n int) string {
	var high, low, closes []string
	for i := range n {
		high = append(high, fmt.Sprintf("%d", 110+i%3))
		low = append(low, fmt.Sprintf("%d", 90-i%2))
		closes = append(closes, "105")
	}
	// A missing candle is skipped.
	high = append(high, "null")
	low = append(low, "null")
	closes = append(closes, "null")

	return fmt.Sprintf(`{"chart":{"result":[{"indicators":{"quote":[{"high":[%s],"low":[%s],"close":[%s]}]}}],"error":null}`,
		strings.Join(high, ","), strings.Join(low, ","), strings.Join(closes, ","))
}

func TestMarketAnalysis(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		w.Write([]byte(chartJSON(12)))
	}))
	defer srv.Close()

	asker := &fakeAsker{answer: "1. BUY - sweep of sell-side liquidity."}
	e := setup(t, skills.Deps{MarketURL: srv.URL + "/", Asker: asker})

	assert.Equal(t, "Gold analysis: 1. BUY - sweep of sell-side liquidity.", e.do(t, "how is gold looking"))
	assert.Equal(t, "/v8/finance/chart/GC=F", gotPath)
	assert.Equal(t, "15d", gotRange)

	// High 112, low 89: a 23 point range.
	require.Len(t, asker.prompts, 1)
	assert.Contains(t, asker.prompts[0], "Analyze Gold at 105.00")
	assert.Contains(t, asker.prompts[0], "L3 106.57 | L2 100.50 | L1 93.92")

	assert.Equal(t, "Bank Nifty analysis: 1. BUY - sweep of sell-side liquidity.", e.do(t, "bank nifty today"))
	assert.Equal(t, "/v8/finance/chart/^NSEBANK", gotPath)

	e.do(t, "crude oil")
	assert.Equal(t, "/v8/finance/chart/CL=F", gotPath)

	assert.Equal(t, []string{
		"xdg-open https://www.tradingview.com/chart/?symbol=XAUUSD",
		"xdg-open https://www.tradingview.com/chart/?symbol=NSE:BANKNIFTY",
		"xdg-open https://www.tradingview.com/chart/?symbol=OIL",
	}, e.cmds.ran)
}

func TestMarketFallsBackToChart(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"short history": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chartJSON(5)))
		},
		"unknown symbol": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			asker := &fakeAsker{answer: "unused"}
			e := setup(t, skills.Deps{MarketURL: srv.URL + "/", Asker: asker})

			assert.Equal(t, "Showing Apple chart. Detailed analysis unavailable.", e.do(t, "apple stock"))
			assert.Equal(t, []string{"xdg-open https://www.tradingview.com/chart/?symbol=NASDAQ:AAPL"}, e.cmds.ran)
			assert.Empty(t, asker.prompts)
		})
	}

	t.Run("analysis unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chartJSON(12)))
		}))
		defer srv.Close()

		e := setup(t, skills.Deps{MarketURL: srv.URL + "/", Asker: &fakeAsker{answer: ai.Fallback}})
		assert.Equal(t, "Showing Reliance chart. Detailed analysis unavailable.", e.do(t, "reliance"))
	})
}
