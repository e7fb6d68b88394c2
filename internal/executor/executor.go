// Package executor runs a plan step by step against the input, screen and
// detection backends.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shahar-caura/deskpilot/internal/events"
	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/shahar-caura/deskpilot/internal/plan"
	"github.com/shahar-caura/deskpilot/internal/provider"
	"github.com/shahar-caura/deskpilot/internal/resolver"
	"github.com/shahar-caura/deskpilot/internal/slots"
)

var (
	// ErrEmptyPlan is returned when there is nothing to execute.
	ErrEmptyPlan = errors.New("no execution plan generated for the command")

	// ErrContractViolation indicates a step whose parameters have the wrong type.
	ErrContractViolation = errors.New("contract violation")
)

// Settle delays after focusing a window and after a click.
const (
	DefaultFocusSettle = 200 * time.Millisecond
	DefaultClickSettle = 100 * time.Millisecond
	defaultWait        = 0.5
)

// SoftError is a step failure that is logged and skipped.
type SoftError struct {
	Index  int
	Action plan.ActionType
	Reason string
	Err    error
}

func (e *SoftError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %d (%s): %s: %v", e.Index+1, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %s", e.Index+1, e.Action, e.Reason)
}

func (e *SoftError) Unwrap() error { return e.Err }

// Result is the outcome of one plan execution. Skipped steps do not affect Success.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Grounder turns a target description into a screen coordinate.
type Grounder interface {
	Resolve(ctx context.Context, req resolver.Request) (resolver.Point, bool)
}

// Dispatcher routes steps to backends. Screen, Detector and Grounder may be
// nil, in which case vision steps are skipped.
type Dispatcher struct {
	Input    provider.Input
	Screen   provider.Screen
	Detector provider.Detector
	Grounder Grounder
	Events   events.Publisher
	Logger   *slog.Logger

	FocusSettle time.Duration
	ClickSettle time.Duration

	// sleep is overridable for testing.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a dispatcher with the default settle delays.
func New(input provider.Input, screen provider.Screen, detector provider.Detector, grounder Grounder, pub events.Publisher, logger *slog.Logger) *Dispatcher {
	if pub == nil {
		pub = events.Discard
	}
	return &Dispatcher{
		Input:       input,
		Screen:      screen,
		Detector:    detector,
		Grounder:    grounder,
		Events:      pub,
		Logger:      logger,
		FocusSettle: DefaultFocusSettle,
		ClickSettle: DefaultClickSettle,
		sleep:       sleepContext,
	}
}

// Execute runs p in order. Soft failures skip the step; the first hard
// failure aborts and is returned in Result.Error.
func (d *Dispatcher) Execute(ctx context.Context, category intent.Category, p plan.Plan, m slots.Map, raw string, cls *intent.Result) Result {
	inv := events.InvocationFrom(ctx)
	logger := d.Logger.With("category", category)
	if cls != nil {
		logger = logger.With("confidence", fmt.Sprintf("%.2f", cls.Confidence))
	}

	if len(p) == 0 {
		logger.Error("nothing to execute", "input", raw)
		return d.finish(inv, Result{Success: false, Error: ErrEmptyPlan.Error()}, 0)
	}

	logger.Info("executing plan", "steps", len(p), "slots", len(m))

	skipped := 0
	for i, step := range p {
		d.Events.Publish(events.Event{Invocation: inv, Type: events.StepStarted, Data: stepData(i, step)})

		err := d.runStep(ctx, i, step, raw)
		var soft *SoftError
		switch {
		case err == nil:
			d.Events.Publish(events.Event{Invocation: inv, Type: events.StepDone, Data: stepData(i, step)})
		case errors.As(err, &soft):
			skipped++
			logger.Warn("step skipped", "step", i+1, "action", step.Action, "reason", soft.Error())
			data := stepData(i, step)
			data["reason"] = soft.Error()
			d.Events.Publish(events.Event{Invocation: inv, Type: events.StepSkipped, Data: data})
		default:
			logger.Error("plan aborted", "step", i+1, "action", step.Action, "err", err)
			return d.finish(inv, Result{Success: false, Error: err.Error()}, skipped)
		}
	}

	logger.Info("plan completed", "steps", len(p), "skipped", skipped)
	return d.finish(inv, Result{Success: true}, skipped)
}

func (d *Dispatcher) finish(inv string, r Result, skipped int) Result {
	d.Events.Publish(events.Event{
		Invocation: inv,
		Type:       events.ExecutionFinished,
		Data:       map[string]any{"success": r.Success, "error": r.Error, "skipped": skipped},
	})
	return r
}

func stepData(i int, s plan.Step) map[string]any {
	return map[string]any{"index": i, "action": string(s.Action), "description": s.Description}
}

// runStep executes one step. It returns nil, a *SoftError, or a hard error.
// A panic in a backend is converted to a hard error.
func (d *Dispatcher) runStep(ctx context.Context, i int, step plan.Step, raw string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %d (%s): panic: %v", i+1, step.Action, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
	}

	s := stepRunner{d: d, ctx: ctx, index: i, step: step}

	switch step.Action {
	case plan.PressKey:
		return s.direct("key", d.Input.PressKey)
	case plan.TypeText:
		return s.direct("text", d.Input.TypeText)
	case plan.OpenApp:
		return s.direct("app_name", d.Input.LaunchApp)
	case plan.OpenURL:
		return s.direct("url", d.Input.OpenURL)
	case plan.SystemAction:
		return s.direct("action", d.Input.SystemAction)
	case plan.FocusWindow:
		if err := s.direct("title", d.Input.FocusWindow); err != nil {
			return err
		}
		return s.settle(d.FocusSettle)
	case plan.Wait:
		secs, err := s.number("duration", defaultWait)
		if err != nil {
			return err
		}
		return s.settle(time.Duration(secs * float64(time.Second)))
	case plan.MouseClick, plan.ScreenAnalysis:
		return s.vision(raw, provider.ButtonLeft, 1)
	case plan.MouseRightClick:
		return s.vision(raw, provider.ButtonRight, 1)
	case plan.MouseDoubleClick:
		return s.vision(raw, provider.ButtonLeft, 2)
	default:
		return s.soft("unsupported action type", nil)
	}
}

type stepRunner struct {
	d     *Dispatcher
	ctx   context.Context
	index int
	step  plan.Step
}

func (s stepRunner) soft(reason string, err error) error {
	return &SoftError{Index: s.index, Action: s.step.Action, Reason: reason, Err: err}
}

// backendErr skips the step unless the failure came from a cancelled context.
func (s stepRunner) backendErr(err error) error {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("step %d (%s): %w", s.index+1, s.step.Action, ctxErr)
	}
	return s.soft("backend call failed", err)
}

func (s stepRunner) text(key string) (string, error) {
	v, ok := s.step.Params[key]
	if !ok || v == nil {
		return "", nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("step %d (%s): %w: parameter %q is %T, want string", s.index+1, s.step.Action, ErrContractViolation, key, v)
	}
	return str, nil
}

func (s stepRunner) number(key string, def float64) (float64, error) {
	v, ok := s.step.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("step %d (%s): %w: parameter %q is %T, want number", s.index+1, s.step.Action, ErrContractViolation, key, v)
}

func (s stepRunner) direct(key string, call func(context.Context, string) error) error {
	val, err := s.text(key)
	if err != nil {
		return err
	}
	if val == "" {
		return s.soft("empty "+key, nil)
	}
	if err := call(s.ctx, val); err != nil {
		return s.backendErr(err)
	}
	return nil
}

func (s stepRunner) settle(dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	if err := s.d.sleep(s.ctx, dur); err != nil {
		return fmt.Errorf("step %d (%s): %w", s.index+1, s.step.Action, err)
	}
	return nil
}

func (s stepRunner) vision(raw, button string, clicks int) error {
	d := s.d
	if d.Screen == nil || d.Detector == nil || d.Grounder == nil {
		return s.soft("vision backends not configured", nil)
	}

	target, err := s.text("target")
	if err != nil {
		return err
	}
	profile, err := s.text("profile_name")
	if err != nil {
		return err
	}
	if target == "" {
		target = s.step.Description
	}

	path, err := d.Screen.Capture(s.ctx)
	if err != nil {
		return s.backendErr(fmt.Errorf("no screenshot: %w", err))
	}
	defer os.Remove(path)

	elements, err := d.Detector.Detect(s.ctx, path, raw)
	if err != nil {
		return s.backendErr(fmt.Errorf("element detection: %w", err))
	}
	if len(elements) == 0 {
		return s.soft("no elements detected", nil)
	}

	pt, ok := d.Grounder.Resolve(s.ctx, resolver.Request{
		Elements: elements,
		Target:   target,
		Action:   s.step.Description,
		Profile:  profile,
	})
	if !ok {
		return s.soft("no matching element for "+target, nil)
	}

	w, h, err := d.Screen.Size(s.ctx)
	if err != nil {
		return s.backendErr(fmt.Errorf("screen size: %w", err))
	}
	if pt.X < 0 || pt.Y < 0 || pt.X > w || pt.Y > h {
		return s.soft(fmt.Sprintf("coordinate (%d, %d) outside %dx%d screen", pt.X, pt.Y, w, h), nil)
	}

	d.Logger.Info("clicking", "x", pt.X, "y", pt.Y, "button", button, "clicks", clicks, "target", target)
	if err := d.Input.Click(s.ctx, pt.X, pt.Y, button, clicks); err != nil {
		return s.backendErr(err)
	}
	return s.settle(d.ClickSettle)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
