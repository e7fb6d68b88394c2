package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shahar-caura/deskpilot/internal/events"
	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/shahar-caura/deskpilot/internal/pipeline"
	"github.com/shahar-caura/deskpilot/internal/plan"
	"github.com/shahar-caura/deskpilot/internal/slots"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

// transcript renders an invocation in three numbered sections.
type transcript struct {
	w     io.Writer
	title cases.Caser
	skips []string
}

func newTranscript(w io.Writer) *transcript {
	return &transcript{w: w, title: cases.Title(language.English)}
}

func (t *transcript) classification(res *intent.Result) {
	headingColor.Fprintln(t.w, "STEP 1: Intent classification")
	fmt.Fprintf(t.w, "  Category:   %s\n", res.Category)
	fmt.Fprintf(t.w, "  Confidence: %.2f\n", res.Confidence)
}

func (t *transcript) slots(m slots.Map) {
	headingColor.Fprintln(t.w, "STEP 2: Extracted slots")
	shown := false
	for _, k := range slots.Keys {
		if !m.Present(k) {
			continue
		}
		shown = true
		fmt.Fprintf(t.w, "  %s: %v\n", t.label(k), m[k])
	}
	if !shown {
		dimColor.Fprintln(t.w, "  (none)")
	}
}

func (t *transcript) plan(p plan.Plan) {
	headingColor.Fprintf(t.w, "STEP 3: Execution plan (%d steps)\n", len(p))
	for i, s := range p {
		fmt.Fprintf(t.w, "  %2d. %-18s %s", i+1, s.Action, s.Description)
		if params := formatParams(s.Params); params != "" {
			dimColor.Fprintf(t.w, "  %s", params)
		}
		fmt.Fprintln(t.w)
	}
}

func (t *transcript) invocation(inv *pipeline.Invocation, executed bool) {
	if inv.Classification == nil {
		return
	}
	t.classification(inv.Classification)
	t.slots(inv.Slots)
	t.plan(inv.Steps())
	if inv.Messaging != "" {
		fmt.Fprintf(t.w, "  Messaging:  %s\n", inv.Messaging)
	}
	if executed {
		t.result(inv)
	}
}

func (t *transcript) result(inv *pipeline.Invocation) {
	for _, reason := range t.skips {
		failColor.Fprintf(t.w, "  Skipped %s\n", reason)
	}
	elapsed := inv.Elapsed.Round(10 * time.Millisecond)
	if inv.Result.Success {
		okColor.Fprintf(t.w, "Done in %s\n", elapsed)
		return
	}
	failColor.Fprintf(t.w, "Failed after %s: %s\n", elapsed, inv.Result.Error)
}

func (t *transcript) label(key string) string {
	return t.title.String(strings.ReplaceAll(key, "_", " "))
}

// formatParams renders the non-empty parameters as k=v pairs in key order.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}

// progress receives pipeline events while a CLI command runs. It announces
// voice prompts as they happen and keeps skipped steps for the transcript.
type progress struct {
	prompt io.Writer

	mu    sync.Mutex
	skips []string
}

func newProgress(prompt io.Writer) *progress {
	return &progress{prompt: prompt}
}

func (p *progress) Publish(ev events.Event) {
	switch ev.Type {
	case events.Listening:
		if ev.Data["for"] != "message" {
			fmt.Fprintln(p.prompt, "Say a command.")
			return
		}
		if who, _ := ev.Data["recipient"].(string); who != "" {
			fmt.Fprintf(p.prompt, "What message do you want to send to %s?\n", who)
		} else {
			fmt.Fprintln(p.prompt, "What message do you want to send?")
		}
	case events.StepSkipped:
		reason, _ := ev.Data["reason"].(string)
		p.mu.Lock()
		p.skips = append(p.skips, reason)
		p.mu.Unlock()
	}
}

func (p *progress) skipped() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.skips)
}
