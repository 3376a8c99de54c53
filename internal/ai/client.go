// Package ai answers free-form questions through an OpenAI-compatible chat
// completion endpoint. Ask never fails: every error collapses to Fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const Fallback = "Sorry, I can't answer right now."

const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTokens      = 50
	MaxTokens      = 500
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

type Client struct {
	api         openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: ClampTemperature(cfg.Temperature),
		maxTokens:   ClampTokens(cfg.MaxTokens),
		timeout:     timeout,
	}
}

// Ask returns the model's answer or Fallback.
func (c *Client) Ask(ctx context.Context, question string) string {
	answer, err := c.complete(ctx, question)
	if err != nil {
		log.Warn("AI request failed", "err", err)
		return Fallback
	}

	return answer
}

func (c *Client) complete(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("empty question")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(question),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("empty message content")
	}

	log.Debug("AI answered", "model", c.model, "chars", len(content))

	return content, nil
}

func ClampTemperature(t float64) float64 {
	return min(max(t, MinTemperature), MaxTemperature)
}

func ClampTokens(n int) int {
	return min(max(n, MinTokens), MaxTokens)
}
