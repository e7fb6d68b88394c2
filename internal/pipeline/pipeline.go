// Package pipeline runs one command end to end: classify, extract slots,
// synthesize a plan and execute it, including the two-phase messaging flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/shahar-caura/deskpilot/internal/events"
	"github.com/shahar-caura/deskpilot/internal/executor"
	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/shahar-caura/deskpilot/internal/plan"
	"github.com/shahar-caura/deskpilot/internal/provider"
	"github.com/shahar-caura/deskpilot/internal/slots"
)

// ErrBusy is returned when a command arrives while another is executing.
var ErrBusy = errors.New("another command is already running")

// Default voice capture limits.
const (
	DefaultListenTimeout = 7 * time.Second
	DefaultPhraseLimit   = 15 * time.Second
)

// Classifier maps command text to a category.
type Classifier interface {
	Classify(text string) (*intent.Result, error)
}

// Synthesizer expands a template key against slots.
type Synthesizer interface {
	Synthesize(key string, m slots.Map) plan.Plan
}

// Executor runs a plan.
type Executor interface {
	Execute(ctx context.Context, category intent.Category, p plan.Plan, m slots.Map, raw string, cls *intent.Result) executor.Result
}

// Components holds the wired collaborators for a pipeline. Voice may be nil,
// in which case messages without content are cancelled after phase one.
type Components struct {
	Classifier Classifier
	Templates  Synthesizer
	Executor   Executor
	Voice      provider.Voice
	Events     events.Publisher
}

// Options tunes voice capture.
type Options struct {
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
}

// Invocation is everything one command produced. It is owned by the
// goroutine running it and never shared.
type Invocation struct {
	ID             string          `json:"id"`
	Input          string          `json:"input"`
	Classification *intent.Result  `json:"classification,omitempty"`
	Slots          slots.Map       `json:"slots,omitempty"`
	Plans          []plan.Plan     `json:"plans,omitempty"`
	Messaging      MessagingState  `json:"messaging_state,omitempty"`
	Result         executor.Result `json:"result"`
	Started        time.Time       `json:"started"`
	Elapsed        time.Duration   `json:"elapsed"`
}

// Steps returns all planned steps in execution order.
func (inv *Invocation) Steps() plan.Plan {
	var out plan.Plan
	for _, p := range inv.Plans {
		out = append(out, p...)
	}
	return out
}

// Pipeline runs commands one at a time.
type Pipeline struct {
	c      Components
	opts   Options
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// New creates a pipeline.
func New(c Components, opts Options, logger *slog.Logger) *Pipeline {
	if c.Events == nil {
		c.Events = events.Discard
	}
	if opts.ListenTimeout <= 0 {
		opts.ListenTimeout = DefaultListenTimeout
	}
	if opts.PhraseLimit <= 0 {
		opts.PhraseLimit = DefaultPhraseLimit
	}
	return &Pipeline{c: c, opts: opts, sem: semaphore.NewWeighted(1), logger: logger}
}

// Run executes text as a command. It returns ErrBusy without doing anything
// if another Run is in flight, and a wrapped intent.ErrClassificationFailed
// when the text cannot be classified. Execution failures are reported in
// Invocation.Result, not as an error.
func (p *Pipeline) Run(ctx context.Context, text string) (*Invocation, error) {
	if !p.sem.TryAcquire(1) {
		p.c.Events.Publish(events.Event{Type: events.Rejected, Data: map[string]any{"text": text}})
		p.logger.Warn("command rejected, pipeline busy", "text", text)
		return nil, ErrBusy
	}
	defer p.sem.Release(1)

	inv, ctx, err := p.prepare(ctx, text)
	if err != nil {
		return inv, err
	}
	defer func() { inv.Elapsed = time.Since(inv.Started) }()

	if inv.Classification.Category == intent.SendMessage {
		return inv, p.runMessaging(ctx, inv)
	}

	pl := p.c.Templates.Synthesize(inv.Classification.Category.String(), inv.Slots)
	p.planned(inv, pl)
	inv.Result = p.c.Executor.Execute(ctx, inv.Classification.Category, pl, inv.Slots, inv.Input, inv.Classification)
	return inv, nil
}

// Plan classifies, extracts and synthesizes without executing anything. For
// messages, phase two is included only when the message text is already known.
func (p *Pipeline) Plan(ctx context.Context, text string) (*Invocation, error) {
	inv, _, err := p.prepare(ctx, text)
	if err != nil {
		return inv, err
	}

	cat := inv.Classification.Category
	p.planned(inv, p.c.Templates.Synthesize(cat.String(), inv.Slots))
	if cat == intent.SendMessage && inv.Slots.Present(slots.MessageContent) {
		p.planned(inv, p.c.Templates.Synthesize(plan.PhaseTwoKey, inv.Slots))
	}
	return inv, nil
}

// Listen captures one spoken command and runs it.
func (p *Pipeline) Listen(ctx context.Context) (*Invocation, error) {
	if p.c.Voice == nil {
		return nil, provider.ErrVoiceUnavailable
	}
	p.c.Events.Publish(events.Event{Type: events.Listening, Data: map[string]any{"for": "command"}})
	text, err := p.c.Voice.Listen(ctx, p.opts.ListenTimeout, p.opts.PhraseLimit)
	if err != nil {
		return nil, fmt.Errorf("listening for command: %w", err)
	}
	return p.Run(ctx, text)
}

func (p *Pipeline) prepare(ctx context.Context, text string) (*Invocation, context.Context, error) {
	inv := &Invocation{ID: uuid.NewString(), Input: text, Started: time.Now()}
	ctx = events.WithInvocation(ctx, inv.ID)
	p.publish(inv, events.CommandReceived, map[string]any{"text": text})

	cls, err := p.c.Classifier.Classify(text)
	if err != nil {
		p.logger.Error("classification failed", "text", text, "err", err)
		inv.Result = executor.Result{Success: false, Error: err.Error()}
		p.publish(inv, events.ExecutionFinished, map[string]any{"success": false, "error": err.Error()})
		return inv, ctx, err
	}
	inv.Classification = cls
	p.logger.Info("classified", "text", text, "category", cls.Category, "confidence", fmt.Sprintf("%.2f", cls.Confidence))
	p.publish(inv, events.Classified, map[string]any{"category": cls.Category.String(), "confidence": cls.Confidence})

	inv.Slots = slots.Extract(text, cls.Category)
	p.publish(inv, events.SlotsExtracted, presentSlots(inv.Slots))
	return inv, ctx, nil
}

// runMessaging drives the SEND_MESSAGE state machine. The voice capture
// between the phases is its only suspension point.
func (p *Pipeline) runMessaging(ctx context.Context, inv *Invocation) error {
	cat := inv.Classification.Category
	state := AwaitingRecipient
	move := func(to MessagingState) error {
		next, err := state.next(to)
		if err != nil {
			return err
		}
		state = next
		inv.Messaging = state
		p.publish(inv, events.MessagingState, map[string]any{"state": string(state)})
		return nil
	}
	inv.Messaging = state

	if inv.Slots.Present(slots.MessageContent) {
		pl := p.c.Templates.Synthesize(cat.String(), inv.Slots)
		pl = append(pl, p.c.Templates.Synthesize(plan.PhaseTwoKey, inv.Slots)...)
		p.planned(inv, pl)
		inv.Result = p.c.Executor.Execute(ctx, cat, pl, inv.Slots, inv.Input, inv.Classification)
		return move(outcome(inv.Result))
	}

	phaseOne := p.c.Templates.Synthesize(cat.String(), inv.Slots)
	p.planned(inv, phaseOne)
	inv.Result = p.c.Executor.Execute(ctx, cat, phaseOne, inv.Slots, inv.Input, inv.Classification)
	if !inv.Result.Success {
		return move(Cancelled)
	}
	if err := move(ChatOpened); err != nil {
		return err
	}

	if err := move(AwaitingMessage); err != nil {
		return err
	}
	text, err := p.listenForMessage(ctx, inv)
	if err != nil {
		p.logger.Warn("message not captured", "recipient", inv.Slots.String(slots.Recipient), "err", err)
		inv.Result = executor.Result{Success: false, Error: "message not captured: " + err.Error()}
		return move(Cancelled)
	}
	inv.Slots.SetMessage(text)
	p.publish(inv, events.SlotsExtracted, presentSlots(inv.Slots))

	phaseTwo := p.c.Templates.Synthesize(plan.PhaseTwoKey, inv.Slots)
	p.planned(inv, phaseTwo)
	inv.Result = p.c.Executor.Execute(ctx, cat, phaseTwo, inv.Slots, inv.Input, inv.Classification)
	return move(outcome(inv.Result))
}

func (p *Pipeline) listenForMessage(ctx context.Context, inv *Invocation) (string, error) {
	if p.c.Voice == nil {
		return "", provider.ErrVoiceUnavailable
	}
	p.publish(inv, events.Listening, map[string]any{"for": "message", "recipient": inv.Slots.String(slots.Recipient)})
	return p.c.Voice.Listen(ctx, p.opts.ListenTimeout, p.opts.PhraseLimit)
}

func outcome(r executor.Result) MessagingState {
	if r.Success {
		return MessageSent
	}
	return Cancelled
}

func (p *Pipeline) planned(inv *Invocation, pl plan.Plan) {
	inv.Plans = append(inv.Plans, pl)
	p.publish(inv, events.PlanReady, map[string]any{"phase": len(inv.Plans), "steps": pl})
}

func (p *Pipeline) publish(inv *Invocation, t events.Type, data map[string]any) {
	p.c.Events.Publish(events.Event{Invocation: inv.ID, Type: t, Data: data})
}

func presentSlots(m slots.Map) map[string]any {
	out := map[string]any{}
	for _, k := range slots.Keys {
		if m.Present(k) {
			out[k] = m[k]
		}
	}
	return out
}
