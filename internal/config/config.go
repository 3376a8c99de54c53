// Package config defines every tunable of the daemon with its default. Values
// come from flags; secrets come from the environment or an env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"jarvis/internal/answer"
	"jarvis/internal/assistant"
	"jarvis/internal/sensitive"
	"jarvis/internal/wake"
)

const (
	SourceMic     = "mic"
	SourceConsole = "console"
	SourceBus     = "bus"
)

type AI struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Config struct {
	EnvFile  string
	LogLevel string

	WakePhrase      string
	WakeLimit       time.Duration
	CommandTimeout  time.Duration
	WakeThreshold   float64
	FuzzyThreshold  float64
	AnswerThreshold float64

	SensitivePhrases  []string
	QuestionWords     []string
	MaxResponseLength int
	Answers           []answer.Entry

	AI    AI
	Proxy string

	Source       string
	BusURL       string
	BusName      string
	WhisperModel string
	Language     string

	Voice     string
	VoiceRate int
	Chime     string
	Notify    bool

	MusicDir      string
	Songs         map[string]string
	ScreenshotDir string
	NewsAPIKey    string
	SocketPath    string
}

func Default() Config {
	return Config{
		EnvFile:  ".env",
		LogLevel: "info",

		WakePhrase:      "jarvis",
		WakeLimit:       3 * time.Second,
		CommandTimeout:  5 * time.Second,
		WakeThreshold:   wake.DefaultThreshold,
		FuzzyThreshold:  assistant.DefaultFuzzyThreshold,
		AnswerThreshold: answer.DefaultThreshold,

		SensitivePhrases:  append([]string(nil), sensitive.DefaultPhrases...),
		QuestionWords:     append([]string(nil), assistant.DefaultQuestionWords...),
		MaxResponseLength: assistant.DefaultMaxResponseLength,
		Answers:           answer.Defaults(),

		AI: AI{
			BaseURL:     "https://openrouter.ai/api/v1/",
			Model:       "deepseek/deepseek-r1:free",
			Temperature: 0.7,
			MaxTokens:   200,
			Timeout:     30 * time.Second,
		},

		Source:       SourceMic,
		BusURL:       "ws://localhost:8092/ws",
		BusName:      "jarvis",
		WhisperModel: "third_party/whisper.cpp/models/ggml-base.en.bin",
		Language:     "en",

		Voice:     "en",
		VoiceRate: 150,
		Chime:     "beep.mp3",
		Notify:    true,

		MusicDir:      "music",
		Songs:         map[string]string{},
		ScreenshotDir: ".",
		SocketPath:    "/tmp/jarvis.sock",
	}
}

// Bind registers the flags on fs with c's current values as defaults.
func (c *Config) Bind(fs *cli.FlagSet) {
	fs.StringVarP(&c.EnvFile, "env", "e", c.EnvFile, "Env file path")
	fs.StringVarP(&c.LogLevel, "log", "l", c.LogLevel, "Log level")

	fs.StringVarP(&c.WakePhrase, "wake", "w", c.WakePhrase, "Wake phrase")
	fs.DurationVar(&c.WakeLimit, "wake-limit", c.WakeLimit, "Longest wake fragment to record")
	fs.DurationVar(&c.CommandTimeout, "command-timeout", c.CommandTimeout, "How long to wait for a command")
	fs.Float64Var(&c.WakeThreshold, "wake-threshold", c.WakeThreshold, "Similarity needed for a fuzzy wake word")
	fs.Float64Var(&c.FuzzyThreshold, "fuzzy-threshold", c.FuzzyThreshold, "Similarity needed to suggest a command")
	fs.Float64Var(&c.AnswerThreshold, "answer-threshold", c.AnswerThreshold, "Similarity needed for a predefined answer")
	fs.StringSliceVar(&c.SensitivePhrases, "sensitive", c.SensitivePhrases, "Phrases that need authorization")
	fs.StringSliceVar(&c.QuestionWords, "question-words", c.QuestionWords, "Words that mark a question")
	fs.IntVar(&c.MaxResponseLength, "max-response", c.MaxResponseLength, "Longest AI answer to speak")

	fs.StringVar(&c.AI.BaseURL, "ai-url", c.AI.BaseURL, "Chat completion base URL")
	fs.StringVar(&c.AI.Model, "ai-model", c.AI.Model, "Chat completion model")
	fs.Float64Var(&c.AI.Temperature, "ai-temperature", c.AI.Temperature, "Sampling temperature (0-2)")
	fs.IntVar(&c.AI.MaxTokens, "ai-max-tokens", c.AI.MaxTokens, "Answer token cap (50-500)")
	fs.DurationVar(&c.AI.Timeout, "ai-timeout", c.AI.Timeout, "AI request timeout")
	fs.StringVarP(&c.Proxy, "proxy", "p", c.Proxy, "Socks Proxy Address")

	fs.StringVarP(&c.Source, "source", "s", c.Source, "Utterance source: mic, console or bus")
	fs.StringVar(&c.BusURL, "bus", c.BusURL, "Hub websocket URL for the bus source")
	fs.StringVar(&c.BusName, "bus-name", c.BusName, "Name this shard answers to on the bus")
	fs.StringVar(&c.WhisperModel, "model", c.WhisperModel, "Whisper model path")
	fs.StringVar(&c.Language, "lang", c.Language, "Transcription language")

	fs.StringVar(&c.Voice, "voice", c.Voice, "espeak-ng voice")
	fs.IntVar(&c.VoiceRate, "voice-rate", c.VoiceRate, "Speech rate in words per minute")
	fs.StringVar(&c.Chime, "chime", c.Chime, "Sound played when listening starts (mp3 or wav, empty to disable)")
	fs.BoolVar(&c.Notify, "notify", c.Notify, "Post desktop notifications")

	fs.StringVar(&c.MusicDir, "music", c.MusicDir, "Music library directory")
	fs.StringToStringVar(&c.Songs, "song", c.Songs, "Extra songs as name=url")
	fs.StringVar(&c.ScreenshotDir, "screenshots", c.ScreenshotDir, "Where screenshots are saved")
	fs.StringVar(&c.SocketPath, "socket", c.SocketPath, "Control socket path")
}

// Load parses args, then reads secrets from the env file and environment.
func Load(args []string) (Config, error) {
	c := Default()

	fs := cli.NewFlagSet("jarvis", cli.ContinueOnError)
	c.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", c.EnvFile, err)
	}

	c.AI.APIKey = firstEnv("JARVIS_AI_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY")
	c.NewsAPIKey = os.Getenv("NEWS_API_KEY")

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.WakePhrase) == "" {
		errs = append(errs, errors.New("wake phrase is empty"))
	}
	for name, v := range map[string]float64{
		"wake-threshold":   c.WakeThreshold,
		"fuzzy-threshold":  c.FuzzyThreshold,
		"answer-threshold": c.AnswerThreshold,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0,1], got %v", name, v))
		}
	}
	if c.WakeLimit <= 0 || c.CommandTimeout <= 0 {
		errs = append(errs, errors.New("listening timeouts must be positive"))
	}
	switch c.Source {
	case SourceMic, SourceConsole, SourceBus:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}
	if c.Source == SourceBus && c.BusURL == "" {
		errs = append(errs, errors.New("bus source needs --bus"))
	}
	if c.MaxResponseLength <= 0 {
		errs = append(errs, errors.New("max-response must be positive"))
	}

	return errors.Join(errs...)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}

	return ""
}
