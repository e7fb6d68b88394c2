package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shahar-caura/deskpilot/internal/provider"
)

// Prompt stands in for a microphone by reading one typed line per Listen.
type Prompt struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan string
}

// NewPrompt creates a voice provider that reads from in and writes prompts to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: in, out: out}
}

// start spawns the single reader goroutine. It exits when in is exhausted.
func (p *Prompt) start() {
	p.lines = make(chan string)
	go func() {
		defer close(p.lines)
		sc := bufio.NewScanner(p.in)
		for sc.Scan() {
			p.lines <- sc.Text()
		}
	}()
}

// Listen waits up to timeout for a line. An empty line or a timeout is
// ErrNoSpeech; a closed input is ErrVoiceUnavailable. phraseLimit is ignored.
func (p *Prompt) Listen(ctx context.Context, timeout, _ time.Duration) (string, error) {
	p.once.Do(p.start)

	fmt.Fprint(p.out, "🎤 > ")

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-expired:
		fmt.Fprintln(p.out)
		return "", provider.ErrNoSpeech
	case line, ok := <-p.lines:
		if !ok {
			return "", provider.ErrVoiceUnavailable
		}
		text := strings.TrimSpace(line)
		if text == "" {
			return "", provider.ErrNoSpeech
		}
		return text, nil
	}
}
