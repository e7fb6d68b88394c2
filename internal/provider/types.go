package provider

import (
	"context"
	"errors"
	"time"
)

// Element is one UI element found on a screenshot. IDs are stable within a
// single detection pass only.
type Element struct {
	ID         int     `json:"id"`
	Label      string  `json:"label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Mouse buttons accepted by Input.Click.
const (
	ButtonLeft  = "left"
	ButtonRight = "right"
)

// Input injects keyboard, mouse and window-manager actions.
type Input interface {
	PressKey(ctx context.Context, key string) error
	TypeText(ctx context.Context, text string) error
	Click(ctx context.Context, x, y int, button string, clicks int) error
	FocusWindow(ctx context.Context, title string) error
	LaunchApp(ctx context.Context, name string) error
	OpenURL(ctx context.Context, url string) error
	SystemAction(ctx context.Context, action string) error
}

// Screen captures the display and reports its resolution.
type Screen interface {
	Capture(ctx context.Context) (path string, err error)
	Size(ctx context.Context) (width, height int, err error)
}

// Detector finds UI elements on a screenshot. hint is the raw command text.
type Detector interface {
	Detect(ctx context.Context, screenshotPath, hint string) ([]Element, error)
}

// Model is a vision-language model: prompt and optional PNG images in, free text out.
type Model interface {
	Generate(ctx context.Context, prompt string, images ...[]byte) (string, error)
}

// Voice captures one spoken phrase as text.
type Voice interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error)
}

var (
	// ErrNoSpeech indicates nothing intelligible was heard before the timeout.
	ErrNoSpeech = errors.New("no speech understood")

	// ErrVoiceUnavailable indicates the speech service could not be reached.
	ErrVoiceUnavailable = errors.New("speech service unavailable")
)
