package screen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shahar-caura/deskpilot/internal/cmdline"
)

// Command captures screenshots by running an external tool, e.g.
// "scrot -o {{.Path}}". The screen size comes from SizeCmd when set
// (expected to print "WIDTHxHEIGHT"), otherwise from Width and Height.
type Command struct {
	CaptureCmd string
	SizeCmd    string
	Width      int
	Height     int
	Dir        string
	Logger     *slog.Logger

	// commandContext is overridable for testing.
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New creates a command-backed screen provider. Screenshots land in dir, or
// the system temp dir when dir is empty.
func New(captureCmd, sizeCmd string, width, height int, dir string, logger *slog.Logger) *Command {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Command{
		CaptureCmd:     captureCmd,
		SizeCmd:        sizeCmd,
		Width:          width,
		Height:         height,
		Dir:            dir,
		Logger:         logger,
		commandContext: exec.CommandContext,
	}
}

// Capture writes a PNG screenshot and returns its path. The caller owns the file.
func (c *Command) Capture(ctx context.Context) (string, error) {
	f, err := os.CreateTemp(c.Dir, "deskpilot-screen-*.png")
	if err != nil {
		return "", fmt.Errorf("screen: creating temp file: %w", err)
	}
	path := f.Name()
	_ = f.Close()

	args, err := cmdline.Render(c.CaptureCmd, struct{ Path string }{path})
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("screen: rendering capture command: %w", err)
	}

	out, err := c.commandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("screen: capture: %w: %s", err, strings.TrimSpace(string(out)))
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(path)
		return "", fmt.Errorf("screen: capture produced no image at %s", filepath.Base(path))
	}

	c.Logger.Debug("screenshot captured", "path", path, "bytes", info.Size())
	return path, nil
}

// Size reports the display resolution.
func (c *Command) Size(ctx context.Context) (int, int, error) {
	if c.SizeCmd == "" {
		if c.Width <= 0 || c.Height <= 0 {
			return 0, 0, fmt.Errorf("screen: size not configured")
		}
		return c.Width, c.Height, nil
	}

	args, err := cmdline.Render(c.SizeCmd, struct{}{})
	if err != nil {
		return 0, 0, fmt.Errorf("screen: rendering size command: %w", err)
	}
	out, err := c.commandContext(ctx, args[0], args[1:]...).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("screen: size: %w", err)
	}
	return parseSize(string(out))
}

func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("screen: unexpected size output %q", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("screen: parsing width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("screen: parsing height: %w", err)
	}
	return width, height, nil
}
