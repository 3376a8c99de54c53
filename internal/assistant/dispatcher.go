// Package assistant turns one transcribed utterance into exactly one handled
// command.
//
// An utterance runs through a fixed chain and the first stage that accepts it
// ends the pass:
//
//	sensitive gate -> conversation -> system -> question -> capability -> fuzzy capability
//
// The sensitive gate and the fuzzy stage may need a second utterance from the
// user. Instead of blocking, Dispatch returns an Outcome with Pending set and
// the caller feeds the reply to Resolve.
package assistant

import (
	"context"
	log "log/slog"
	"strings"

	"jarvis/internal/answer"
	"jarvis/internal/capability"
	"jarvis/internal/conversation"
	"jarvis/internal/match"
	"jarvis/internal/sensitive"
	"jarvis/internal/wake"
)

const (
	DefaultFuzzyThreshold    = 0.6
	DefaultMaxResponseLength = 300
)

var DefaultQuestionWords = []string{
	"what", "who", "when", "where", "why", "how", "tell me", "explain",
}

var affirmatives = map[string]bool{
	"yes": true, "yep": true, "yeah": true, "correct": true,
	"sure": true, "okay": true, "ok": true,
}

const (
	msgNotRecognized = "Sorry, command not recognized."
	msgCancelled     = "Command cancelled."
)

type Stage int

const (
	StageNone Stage = iota
	StageSensitive
	StageConversation
	StageSystem
	StageQuestion
	StageCapability
	StageFuzzy
	StageUnrecognized
)

var stageNames = map[Stage]string{
	StageNone:         "none",
	StageSensitive:    "sensitive",
	StageConversation: "conversation",
	StageSystem:       "system",
	StageQuestion:     "question",
	StageCapability:   "capability",
	StageFuzzy:        "fuzzy",
	StageUnrecognized: "unrecognized",
}

func (s Stage) String() string { return stageNames[s] }

type PendingKind int

const (
	// AwaitAuthorization follows a sensitive command; the reply must
	// contain the authorize token.
	AwaitAuthorization PendingKind = iota + 1
	// AwaitConfirmation follows a fuzzy match; the reply must be
	// affirmative.
	AwaitConfirmation
)

// Pending is a command waiting for one more reply.
type Pending struct {
	Kind    PendingKind
	Text    string
	Trigger string
	Score   float64
}

// Outcome is the result of one Dispatch or Resolve step.
type Outcome struct {
	Stage    Stage
	Response string
	Pending  *Pending
}

func (o Outcome) Done() bool { return o.Pending == nil }

// Asker answers free-form questions. Implementations must not fail.
type Asker interface {
	Ask(ctx context.Context, question string) string
}

type Deps struct {
	Wake     *wake.Detector
	Gate     *sensitive.Gate
	Answers  *answer.Table
	Registry *capability.Registry
	State    *conversation.State
	Features capability.Features
	System   System
	Media    Media
	AI       Asker
}

type Options struct {
	QuestionWords     []string
	FuzzyThreshold    float64
	MaxResponseLength int
}

// Dispatcher is driven from a single goroutine; Assistant enforces that.
type Dispatcher struct {
	deps    Deps
	opts    Options
	pending *Pending
}

func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	if deps.State == nil {
		deps.State = conversation.NewState()
	}
	if deps.Registry == nil {
		deps.Registry = capability.NewRegistry()
	}
	if deps.Answers == nil {
		deps.Answers = answer.NewTable(nil)
	}
	if deps.Gate == nil {
		deps.Gate = sensitive.NewGate(sensitive.DefaultPhrases)
	}
	if deps.Wake == nil {
		deps.Wake = wake.NewDetector("jarvis", wake.DefaultThreshold)
	}
	if deps.Features == nil {
		deps.Features = capability.Features{}
	}

	if opts.QuestionWords == nil {
		opts.QuestionWords = DefaultQuestionWords
	}
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if opts.MaxResponseLength <= 0 {
		opts.MaxResponseLength = DefaultMaxResponseLength
	}

	return &Dispatcher{deps: deps, opts: opts}
}

func (d *Dispatcher) State() *conversation.State { return d.deps.State }

func (d *Dispatcher) Pending() *Pending { return d.pending }

// Dispatch handles a new utterance. Any earlier pending command is dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Outcome {
	d.pending = nil

	text = normalize(text)
	if text == "" {
		return Outcome{Stage: StageNone}
	}

	d.deps.State.Record(text)
	log.Debug("Dispatching", "text", text)

	if phrase, ok := d.deps.Gate.Check(text); ok {
		log.Info("Sensitive command", "phrase", phrase, "text", text)
		return d.await(Pending{Kind: AwaitAuthorization, Text: text}, StageSensitive, d.deps.Gate.Challenge())
	}

	return d.chain(ctx, text)
}

// Resolve feeds the reply to the pending command. An empty reply cancels it.
func (d *Dispatcher) Resolve(ctx context.Context, reply string) Outcome {
	p := d.pending
	d.pending = nil

	if p == nil {
		return Outcome{Stage: StageNone}
	}

	reply = normalize(reply)

	switch p.Kind {
	case AwaitAuthorization:
		if !d.deps.Gate.Authorized(reply) {
			log.Info("Sensitive command cancelled", "text", p.Text)
			return Outcome{Stage: StageSensitive, Response: msgCancelled}
		}
		log.Info("Sensitive command authorized", "text", p.Text)
		return d.chain(ctx, p.Text)

	case AwaitConfirmation:
		if !isAffirmative(reply) {
			return Outcome{Stage: StageUnrecognized, Response: msgNotRecognized}
		}
		c, ok := d.deps.Registry.Get(p.Trigger)
		if !ok {
			return Outcome{Stage: StageUnrecognized, Response: msgNotRecognized}
		}
		return Outcome{Stage: StageFuzzy, Response: d.invoke(ctx, c, p.Text)}
	}

	return Outcome{Stage: StageNone}
}

// chain runs every stage after the sensitive gate.
func (d *Dispatcher) chain(ctx context.Context, text string) Outcome {
	if resp, ok := d.handleConversation(ctx, text); ok {
		return Outcome{Stage: StageConversation, Response: resp}
	}

	if resp, ok := d.handleSystem(ctx, text); ok {
		return Outcome{Stage: StageSystem, Response: resp}
	}

	if resp, ok := d.handleQuestion(ctx, text); ok {
		return Outcome{Stage: StageQuestion, Response: resp}
	}

	if c, ok := d.deps.Registry.Match(text); ok {
		log.Debug("Capability matched", "trigger", c.Trigger)
		return Outcome{Stage: StageCapability, Response: d.invoke(ctx, c, text)}
	}

	best := match.Best(text, d.deps.Registry.Triggers())
	if best.Found() && best.Score > d.opts.FuzzyThreshold {
		log.Debug("Fuzzy candidate", "trigger", best.Key, "score", best.Score)
		return d.await(Pending{
			Kind:    AwaitConfirmation,
			Text:    text,
			Trigger: best.Key,
			Score:   best.Score,
		}, StageFuzzy, "Did you mean '"+best.Key+"'?")
	}

	return Outcome{Stage: StageUnrecognized, Response: msgNotRecognized}
}

func (d *Dispatcher) await(p Pending, stage Stage, prompt string) Outcome {
	d.pending = &p
	return Outcome{Stage: stage, Response: prompt, Pending: &p}
}

func (d *Dispatcher) invoke(ctx context.Context, c capability.Capability, text string) string {
	resp := c.Invoke(ctx, text)
	d.syncPlaying()
	return resp
}

// syncPlaying mirrors the player's current track into the conversation
// state after anything that may have changed it.
func (d *Dispatcher) syncPlaying() {
	if d.deps.Media == nil {
		return
	}
	label, _ := d.deps.Media.Current()
	d.deps.State.SetPlaying(label)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func isAffirmative(reply string) bool {
	for _, tok := range strings.Fields(reply) {
		if affirmatives[strings.Trim(tok, ".,!?")] {
			return true
		}
	}

	return false
}

// containsWord matches phrase on word boundaries, so "how" does not match
// "show".
func containsWord(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return strings.TrimSpace(string(r[:n]))
}
