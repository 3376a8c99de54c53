package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"

	"jarvis/internal/ai"
)

const (
	chartURL = "https://www.tradingview.com/chart/?symbol="
	// minHistory is the number of daily closes needed for the levels.
	minHistory = 10
)

// Asker produces the trading analysis. It returns ai.Fallback on failure
// rather than an error.
type Asker interface {
	Ask(ctx context.Context, question string) string
}

// asset maps a spoken name onto its chart and quote symbols. Crypto assets
// are priced by CoinGecko id, everything else by Yahoo Finance symbol.
type asset struct {
	name  string
	chart string
	quote string
	coin  string
}

var assets = []struct {
	trigger string
	asset   asset
}{
	{"gold", asset{name: "Gold", chart: "XAUUSD", quote: "GC=F"}},
	{"bitcoin", asset{name: "Bitcoin", chart: "BTCUSD", coin: "bitcoin"}},
	{"btc", asset{name: "Bitcoin", chart: "BTCUSD", coin: "bitcoin"}},
	{"apple", asset{name: "Apple", chart: "NASDAQ:AAPL", quote: "AAPL"}},
	{"crude oil", asset{name: "Crude oil", chart: "OIL", quote: "CL=F"}},
	{"nifty", asset{name: "Nifty", chart: "NSE:NIFTY", quote: "^NSEI"}},
	{"bank nifty", asset{name: "Bank Nifty", chart: "NSE:BANKNIFTY", quote: "^NSEBANK"}},
	{"reliance", asset{name: "Reliance", chart: "NSE:RELIANCE", quote: "RELIANCE.NS"}},
}

var errNoAnalysis = errors.New("analysis unavailable")

type market struct {
	client    *http.Client
	coinBase  string
	quoteBase string
	ai        Asker
	web       *web
}

// report speaks a price-driven analysis of a and puts its chart up.
func (m *market) report(a asset) func(context.Context, string) (string, error) {
	return func(ctx context.Context, _ string) (string, error) {
		var (
			text string
			err  error
		)
		if a.coin != "" {
			text, err = m.coinReport(ctx, a)
		} else {
			text, err = m.quoteReport(ctx, a)
		}

		shown := m.web.browse(ctx, chartURL+a.chart) == nil

		if err != nil {
			log.Warn("Market analysis failed", "asset", a.name, "err", err)
			if shown {
				return fmt.Sprintf("Showing %s chart. Detailed analysis unavailable.", a.name), nil
			}
			return a.name + " analysis unavailable.", nil
		}

		return text, nil
	}
}

func (m *market) coinReport(ctx context.Context, a asset) (string, error) {
	price, change, err := m.coinPrice(ctx, a.coin)
	if err != nil {
		return "", err
	}

	dir := "up"
	if change < 0 {
		dir = "down"
	}
	summary := fmt.Sprintf("%s is at $%.2f, %s %.2f%% in 24 hours.", a.name, price, dir, math.Abs(change))

	analysis, err := m.analyse(ctx, fmt.Sprintf(
		"Analyze %s at $%.2f (%+.2f%% change) using SMC/ICT concepts. "+
			"Provide concise 5-line trading plan:\n"+
			"1. [BUY/SELL/WAIT] - [SMC Pattern + ICT Confirmation]\n"+
			"2. Key Levels: [Support] | [Resistance] | [Liquidity]\n"+
			"3. Market Structure: [Bullish/Bearish/Ranging]\n"+
			"4. Risk Management: [Stop Location] | [Risk %%]\n"+
			"5. Targets: [TP1] | [TP2] | [Liquidity Run]",
		a.name, price, change))
	if err != nil {
		// The price alone is still worth saying.
		return summary + " Detailed analysis unavailable.", nil
	}

	return summary + " " + a.name + " analysis: " + analysis, nil
}

func (m *market) quoteReport(ctx context.Context, a asset) (string, error) {
	h, err := m.history(ctx, a.quote)
	if err != nil {
		return "", err
	}

	l3, l2, l1 := h.levels()
	analysis, err := m.analyse(ctx, fmt.Sprintf(
		"Analyze %s at %.2f using SMC/ICT concepts. "+
			"Key Levels: L3 %.2f | L2 %.2f | L1 %.2f. "+
			"Provide exact 5-line response:\n"+
			"1. [BUY/SELL/WAIT] - [SMC Pattern + ICT Confirmation]\n"+
			"2. Key Levels: [L3] | [L2] | [L1]\n"+
			"3. Market Structure: [Bullish/Bearish/Ranging]\n"+
			"4. Liquidity Zones: [Above/Below] current price\n"+
			"5. Optimal Entry: [price] | Stop Loss: [price]",
		a.name, h.last, l3, l2, l1))
	if err != nil {
		return "", err
	}

	return a.name + " analysis: " + analysis, nil
}

func (m *market) analyse(ctx context.Context, prompt string) (string, error) {
	if m.ai == nil {
		return "", errNoAnalysis
	}

	out := strings.TrimSpace(m.ai.Ask(ctx, prompt))
	if out == "" || out == ai.Fallback {
		return "", errNoAnalysis
	}
	return out, nil
}

type coinResponse map[string]struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

func (m *market) coinPrice(ctx context.Context, id string) (float64, float64, error) {
	u := m.coinBase + "simple/price?ids=" + url.QueryEscape(id) + "&vs_currencies=usd&include_24hr_change=true"

	var body coinResponse
	if err := m.get(ctx, u, &body); err != nil {
		return 0, 0, fmt.Errorf("coingecko: %w", err)
	}

	p, ok := body[id]
	if !ok || p.USD == 0 {
		return 0, 0, fmt.Errorf("no price for %s", id)
	}
	return p.USD, p.Change24h, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// history is a daily price range over the lookback window.
type history struct {
	high, low, last float64
	days            int
}

// levels returns the 0.236, 0.5 and 0.786 retracements from the high.
func (h history) levels() (l3, l2, l1 float64) {
	span := h.high - h.low
	return h.high - span*0.236, h.high - span*0.5, h.high - span*0.786
}

func (m *market) history(ctx context.Context, symbol string) (history, error) {
	u := m.quoteBase + "v8/finance/chart/" + url.PathEscape(symbol) + "?range=15d&interval=1d"

	var body chartResponse
	if err := m.get(ctx, u, &body); err != nil {
		return history{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if e := body.Chart.Error; e != nil {
		return history{}, fmt.Errorf("quote %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return history{}, fmt.Errorf("quote %s: empty result", symbol)
	}

	q := body.Chart.Result[0].Indicators.Quote[0]
	h := history{high: math.Inf(-1), low: math.Inf(1)}
	for i, c := range q.Close {
		if c == nil || i >= len(q.High) || i >= len(q.Low) || q.High[i] == nil || q.Low[i] == nil {
			continue
		}
		h.high = math.Max(h.high, *q.High[i])
		h.low = math.Min(h.low, *q.Low[i])
		h.last = *c
		h.days++
	}

	if h.days < minHistory {
		return history{}, fmt.Errorf("quote %s: insufficient history (%d days)", symbol, h.days)
	}
	return h, nil
}

func (m *market) get(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) jarvis")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
