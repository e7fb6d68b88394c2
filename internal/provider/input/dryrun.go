package input

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DryRun records actions instead of performing them. It is used by
// `deskpilot plan --dry-run` and in tests.
type DryRun struct {
	Logger *slog.Logger

	mu      sync.Mutex
	actions []string
}

// NewDryRun creates a recording input provider.
func NewDryRun(logger *slog.Logger) *DryRun {
	return &DryRun{Logger: logger}
}

// Actions returns a copy of everything recorded so far.
func (d *DryRun) Actions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.actions...)
}

func (d *DryRun) record(ctx context.Context, format string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	action := fmt.Sprintf(format, args...)
	d.mu.Lock()
	d.actions = append(d.actions, action)
	d.mu.Unlock()
	d.Logger.Info("dry-run", "action", action)
	return nil
}

func (d *DryRun) PressKey(ctx context.Context, key string) error {
	return d.record(ctx, "key %s", key)
}

func (d *DryRun) TypeText(ctx context.Context, text string) error {
	return d.record(ctx, "type %q", text)
}

func (d *DryRun) Click(ctx context.Context, x, y int, button string, clicks int) error {
	return d.record(ctx, "click %d,%d %s x%d", x, y, button, clicks)
}

func (d *DryRun) FocusWindow(ctx context.Context, title string) error {
	return d.record(ctx, "focus %q", title)
}

func (d *DryRun) LaunchApp(ctx context.Context, name string) error {
	return d.record(ctx, "launch %s", name)
}

func (d *DryRun) OpenURL(ctx context.Context, url string) error {
	return d.record(ctx, "open %s", url)
}

func (d *DryRun) SystemAction(ctx context.Context, action string) error {
	return d.record(ctx, "system %s", action)
}
