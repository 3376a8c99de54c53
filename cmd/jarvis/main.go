package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"jarvis/internal/ai"
	"jarvis/internal/answer"
	"jarvis/internal/assistant"
	"jarvis/internal/audio"
	"jarvis/internal/bus"
	"jarvis/internal/capability"
	"jarvis/internal/config"
	"jarvis/internal/conversation"
	"jarvis/internal/ipc"
	"jarvis/internal/listen"
	"jarvis/internal/listen/mic"
	"jarvis/internal/media"
	"jarvis/internal/notify"
	"jarvis/internal/proxy"
	"jarvis/internal/sensitive"
	"jarvis/internal/skills"
	"jarvis/internal/system"
	"jarvis/internal/tts"
	"jarvis/internal/tts/espeak"
	"jarvis/internal/wake"
	"jarvis/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevelMap[cfg.LogLevel],
		TimeFormat: time.TimeOnly,
	})))

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := system.ExecRunner
	features := capability.Detect(nil)
	log.Info("Detected features", "features", features.String())

	httpClient, err := proxy.NewClient(cfg.Proxy, cfg.AI.Timeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	var asker assistant.Asker
	if cfg.AI.APIKey != "" {
		asker = ai.New(ai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
			HTTPClient:  httpClient,
		})
		log.Debug("Loaded AI client", "model", cfg.AI.Model)
	} else {
		log.Warn("No AI key set, questions get canned answers only")
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		if cfg.Source == config.SourceMic {
			log.Error("Failed to init audio", "err", err)
			os.Exit(1)
		}
		log.Warn("Audio unavailable, music will not play", "err", err)
	} else {
		defer rec.Close()
	}

	lib, err := media.Scan(cfg.MusicDir, cfg.Songs)
	if err != nil {
		log.Error("Failed to load music library", "err", err)
		os.Exit(1)
	}
	log.Debug("Loaded music library", "songs", lib.Len())

	player := media.NewPlayer(lib, media.PlayerConfig{
		OpenURL: func(ctx context.Context, u string) error {
			_, err := run(ctx, "xdg-open", u)
			return err
		},
	})
	defer player.Stop()

	var desktop *notify.Desktop
	if cfg.Notify {
		desktop = notify.NewDesktop("jarvis", notify.Runner(run))
	}

	gate := sensitive.NewGate(cfg.SensitivePhrases)

	reg := capability.NewRegistry()
	if err := skills.Register(reg, skills.Deps{
		Features:      features,
		Run:           skills.Runner(run),
		HTTP:          httpClient,
		Music:         player,
		Asker:         asker,
		Gate:          gate,
		Notify:        notifier(desktop),
		NewsKey:       cfg.NewsAPIKey,
		ScreenshotDir: cfg.ScreenshotDir,
	}); err != nil {
		log.Error("Failed to register skills", "err", err)
		os.Exit(1)
	}

	disp := assistant.NewDispatcher(assistant.Deps{
		Wake:     wake.NewDetector(cfg.WakePhrase, cfg.WakeThreshold),
		Gate:     gate,
		Answers:  answer.NewTable(cfg.Answers, answer.WithThreshold(cfg.AnswerThreshold)),
		Registry: reg,
		State:    conversation.NewState(),
		Features: features,
		System:   system.NewController(run),
		Media:    player,
		AI:       asker,
	}, assistant.Options{
		QuestionWords:     cfg.QuestionWords,
		FuzzyThreshold:    cfg.FuzzyThreshold,
		MaxResponseLength: cfg.MaxResponseLength,
	})

	voice := espeak.New(cfg.Voice, cfg.VoiceRate)
	defer voice.Close()

	var ducker tts.Ducker
	if features.Enabled(capability.FeatureVolume) {
		ducker = system.NewDucker(run, system.DuckerConfig{
			SelfNames: []string{"jarvis", "espeak"},
			Factor:    0.3,
			Floor:     10,
			Duration:  150 * time.Millisecond,
		})
	}
	local := tts.NewSpeaker(voice, tts.WithDucker(ducker))
	defer local.Close()

	var (
		listener listen.Listener
		speaker  assistant.Speaker = local
	)
	switch cfg.Source {
	case config.SourceMic:
		whisper, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{
			Language:      cfg.Language,
			InitialPrompt: cfg.WakePhrase,
		})
		if err != nil {
			log.Error("Failed to init whisper", "err", err)
			os.Exit(1)
		}
		defer whisper.Close()

		listener = mic.New(rec, whisper, 0)

	case config.SourceConsole:
		listener = listen.NewConsole(os.Stdin, os.Stdout)

	case config.SourceBus:
		client, err := bus.Dial(ctx, bus.Config{URL: cfg.BusURL, Name: cfg.BusName})
		if err != nil {
			log.Error("Failed to connect to bus", "err", err)
			os.Exit(1)
		}
		go func() {
			if err := client.Run(ctx); err != nil {
				log.Error("Bus stopped", "err", err)
			}
		}()

		remote := listen.NewRemote(client)
		listener = remote
		speaker = fanout{local, remote}
	}

	var chime *notify.Chime
	if cfg.Chime != "" {
		chime = notify.NewChime(cfg.Chime)
	}

	a := assistant.New(disp, listener, speaker, assistant.LoopConfig{
		WakeLimit:      cfg.WakeLimit,
		CommandTimeout: cfg.CommandTimeout,
		OnWake:         onWake(chime, desktop),
	})

	srv, err := ipc.Listen(cfg.SocketPath)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	go func() {
		if err := srv.Serve(ctx, control(ctx, a, stop)); err != nil {
			log.Error("IPC stopped", "err", err)
		}
	}()

	log.Info("Boot up - successful", "source", cfg.Source, "wake", cfg.WakePhrase)

	if err := a.Run(ctx); err != nil {
		log.Error("Assistant stopped", "err", err)
		os.Exit(1)
	}

	log.Info("Shut down")
}

// control maps IPC messages onto the assistant. Long-running work is started
// in the background so the client gets its reply right away.
func control(ctx context.Context, a *assistant.Assistant, quit context.CancelFunc) ipc.Handler {
	return func(_ context.Context, msg ipc.ControlMessage) error {
		switch msg.Cmd {
		case ipc.CmdTrigger:
			if a.Busy() {
				return assistant.ErrBusy
			}
			go func() {
				if err := a.Trigger(ctx); err != nil {
					log.Warn("Trigger ignored", "err", err)
				}
			}()

		case ipc.CmdSay:
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				return errors.New("nothing to say")
			}
			if a.Busy() {
				return assistant.ErrBusy
			}
			go func() {
				if err := a.Handle(ctx, text); err != nil {
					log.Warn("Command ignored", "text", text, "err", err)
				}
			}()

		case ipc.CmdQuit:
			log.Info("Quit requested")
			quit()

		default:
			return fmt.Errorf("unknown command %q", msg.Cmd)
		}

		return nil
	}
}

func onWake(chime *notify.Chime, desktop *notify.Desktop) func() {
	return func() {
		if desktop != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := desktop.Send(ctx, "Jarvis", "Listening..."); err != nil {
					log.Debug("Notification failed", "err", err)
				}
			}()
		}
		if chime != nil {
			if err := chime.Play(); err != nil {
				log.Debug("Chime failed", "err", err)
			}
		}
	}
}

func notifier(d *notify.Desktop) func(ctx context.Context, summary, body string) error {
	if d == nil {
		return nil
	}
	return d.Send
}

// fanout speaks through every speaker.
type fanout []assistant.Speaker

func (f fanout) Say(text string) {
	for _, s := range f {
		s.Say(text)
	}
}

func (f fanout) Wait() {
	for _, s := range f {
		s.Wait()
	}
}
