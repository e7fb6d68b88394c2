package voice

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahar-caura/deskpilot/internal/provider"
)

var (
	_ provider.Voice = (*Prompt)(nil)
	_ provider.Voice = (*Command)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestPrompt_ReadsLines(t *testing.T) {
	p := NewPrompt(strings.NewReader("mom\n\nhello there\n"), io.Discard)
	ctx := context.Background()

	got, err := p.Listen(ctx, time.Second, 0)
	require.NoError(t, err)
	assert.Equal(t, "mom", got)

	_, err = p.Listen(ctx, time.Second, 0)
	require.ErrorIs(t, err, provider.ErrNoSpeech)

	got, err = p.Listen(ctx, time.Second, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello there", got)

	_, err = p.Listen(ctx, time.Second, 0)
	require.ErrorIs(t, err, provider.ErrVoiceUnavailable)
}

func TestPrompt_Timeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	var out bytes.Buffer

	p := NewPrompt(r, &out)
	_, err := p.Listen(context.Background(), 20*time.Millisecond, 0)
	require.ErrorIs(t, err, provider.ErrNoSpeech)
	assert.Contains(t, out.String(), ">")
}

func TestPrompt_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompt(r, io.Discard)
	_, err := p.Listen(ctx, time.Second, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCommand_Transcript(t *testing.T) {
	var gotArgs []string
	c := NewCommand("stt --timeout {{.Timeout}} --limit {{.PhraseLimit}}", testLogger())
	c.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = append([]string{name}, args...)
		return exec.CommandContext(ctx, "echo", "  send hello to mom ")
	}

	got, err := c.Listen(context.Background(), 10*time.Second, 20*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "send hello to mom", got)
	assert.Equal(t, []string{"stt", "--timeout", "10", "--limit", "20"}, gotArgs)
}

func TestCommand_NothingUnderstood(t *testing.T) {
	c := NewCommand("stt", testLogger())
	c.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "exit 1")
	}

	_, err := c.Listen(context.Background(), time.Second, time.Second)
	require.ErrorIs(t, err, provider.ErrNoSpeech)
}

func TestCommand_EmptyOutput(t *testing.T) {
	c := NewCommand("stt", testLogger())
	c.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "true")
	}

	_, err := c.Listen(context.Background(), time.Second, time.Second)
	require.ErrorIs(t, err, provider.ErrNoSpeech)
}

func TestCommand_ServiceDown(t *testing.T) {
	c := NewCommand("stt", testLogger())
	c.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo 'no network' >&2; exit 2")
	}

	_, err := c.Listen(context.Background(), time.Second, time.Second)
	require.ErrorIs(t, err, provider.ErrVoiceUnavailable)
}

func TestCommand_NotConfigured(t *testing.T) {
	c := NewCommand("", testLogger())
	_, err := c.Listen(context.Background(), time.Second, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command configured")
}

func TestCommand_ActionWithSpaces(t *testing.T) {
	var got []string
	c := NewCommand(`stt --limit {{if gt .PhraseLimit 0}}{{.PhraseLimit}}{{else}}10{{end}}`, testLogger())
	c.commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		got = append([]string{name}, args...)
		return exec.CommandContext(ctx, "echo", "mom")
	}

	text, err := c.Listen(context.Background(), 5*time.Second, 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "mom", text)
	assert.Equal(t, []string{"stt", "--limit", "15"}, got)
}
