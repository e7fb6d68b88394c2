package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/shahar-caura/deskpilot/internal/cmdline"
	"github.com/shahar-caura/deskpilot/internal/provider"
)

// Command runs an external speech-to-text tool and reads the transcript from
// its stdout, e.g. "stt-listen --timeout {{.Timeout}} --limit {{.PhraseLimit}}".
// Timeout and PhraseLimit are rendered as whole seconds. Exit status 1 means
// nothing was understood; any other failure means the service is down.
type Command struct {
	Template string
	Logger   *slog.Logger

	// commandContext is overridable for testing.
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewCommand creates a command-backed voice provider.
func NewCommand(tmpl string, logger *slog.Logger) *Command {
	return &Command{Template: tmpl, Logger: logger, commandContext: exec.CommandContext}
}

func (c *Command) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	data := struct{ Timeout, PhraseLimit int }{int(timeout.Seconds()), int(phraseLimit.Seconds())}

	if strings.TrimSpace(c.Template) == "" {
		return "", fmt.Errorf("voice: no command configured")
	}
	args, err := cmdline.Render(c.Template, data)
	if err != nil {
		return "", fmt.Errorf("voice: rendering command: %w", err)
	}

	cmd := c.commandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		return "", provider.ErrNoSpeech
	default:
		c.Logger.Debug("speech command failed", "err", err, "stderr", strings.TrimSpace(stderr.String()))
		return "", fmt.Errorf("%w: %v", provider.ErrVoiceUnavailable, err)
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", provider.ErrNoSpeech
	}
	return text, nil
}
