package input

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/shahar-caura/deskpilot/internal/cmdline"
)

// Commands holds one command-line template per input action, rendered with
// cmdline.Render. Key templates may use {{xdokey .Key}}.
type Commands struct {
	Key    string // {{.Key}}
	Type   string // {{.Text}}
	Click  string // {{.X}} {{.Y}} {{.Button}} {{.Clicks}}
	Focus  string // {{.Title}}
	Launch string // {{.App}}
	URL    string // {{.URL}}
	System string // {{.Action}}
}

type templateData struct {
	Key    string
	Text   string
	X, Y   int
	Button string
	Clicks int
	Title  string
	App    string
	URL    string
	Action string
}

// Command implements provider.Input by running external tools such as xdotool.
type Command struct {
	Cmds   Commands
	Logger *slog.Logger

	// commandContext is overridable for testing.
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New creates a command-backed input provider.
func New(cmds Commands, logger *slog.Logger) *Command {
	return &Command{
		Cmds:           cmds,
		Logger:         logger,
		commandContext: exec.CommandContext,
	}
}

func (c *Command) PressKey(ctx context.Context, key string) error {
	return c.run(ctx, "key", c.Cmds.Key, templateData{Key: key})
}

func (c *Command) TypeText(ctx context.Context, text string) error {
	return c.run(ctx, "type", c.Cmds.Type, templateData{Text: text})
}

func (c *Command) Click(ctx context.Context, x, y int, button string, clicks int) error {
	if clicks < 1 {
		clicks = 1
	}
	return c.run(ctx, "click", c.Cmds.Click, templateData{X: x, Y: y, Button: button, Clicks: clicks})
}

func (c *Command) FocusWindow(ctx context.Context, title string) error {
	return c.run(ctx, "focus", c.Cmds.Focus, templateData{Title: title})
}

func (c *Command) LaunchApp(ctx context.Context, name string) error {
	return c.run(ctx, "launch", c.Cmds.Launch, templateData{App: name})
}

func (c *Command) OpenURL(ctx context.Context, url string) error {
	return c.run(ctx, "open url", c.Cmds.URL, templateData{URL: url})
}

func (c *Command) SystemAction(ctx context.Context, action string) error {
	return c.run(ctx, "system", c.Cmds.System, templateData{Action: action})
}

func (c *Command) run(ctx context.Context, op, tmpl string, data templateData) error {
	if strings.TrimSpace(tmpl) == "" {
		return fmt.Errorf("input %s: no command configured", op)
	}

	args, err := cmdline.Render(tmpl, data)
	if err != nil {
		return fmt.Errorf("input %s: rendering template: %w", op, err)
	}

	c.Logger.Debug("running input command", "op", op, "cmd", args)

	cmd := c.commandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("input %s: %w: %s", op, err, strings.TrimSpace(string(out)))
	}
	return nil
}
