package vlm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Claude implements provider.Model using the claude CLI. Images are written
// to a temp dir and referenced from the prompt so the CLI can read them.
type Claude struct {
	Binary  string
	Timeout time.Duration
	Logger  *slog.Logger

	// commandContext is overridable for testing.
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewClaude creates a claude CLI model provider.
func NewClaude(timeout time.Duration, logger *slog.Logger) *Claude {
	return &Claude{
		Binary:         "claude",
		Timeout:        timeout,
		Logger:         logger,
		commandContext: exec.CommandContext,
	}
}

func (c *Claude) Generate(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"--output-format", "json"}

	if len(images) > 0 {
		dir, err := os.MkdirTemp("", "deskpilot-vlm-*")
		if err != nil {
			return "", fmt.Errorf("claude: creating image dir: %w", err)
		}
		defer os.RemoveAll(dir)

		var refs []string
		for i, img := range images {
			path := filepath.Join(dir, fmt.Sprintf("image-%d.png", i))
			if err := os.WriteFile(path, img, 0o600); err != nil {
				return "", fmt.Errorf("claude: writing image: %w", err)
			}
			refs = append(refs, path)
		}
		prompt = prompt + "\n\nScreenshots (read them before answering):\n" + strings.Join(refs, "\n")
		args = append(args, "--allowedTools", "Read", "--add-dir", dir)
	}

	args = append([]string{"-p", prompt}, args...)

	cmd := c.commandContext(ctx, c.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("claude: timed out after %s", c.Timeout)
		}
		return "", fmt.Errorf("claude: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	c.Logger.Debug("claude responded", "images", len(images))
	return extractResultField(stdout.String()), nil
}

// extractResultField unwraps claude's {"result":"..."} envelope.
// Falls back to the raw string if parsing fails.
func extractResultField(raw string) string {
	var envelope struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return raw
	}
	if envelope.Result == "" {
		return raw
	}
	return envelope.Result
}
