package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const validYAML = `
model:
  provider: gemini
  name: gemini-2.0-flash
  api_key: ${DESKPILOT_TEST_KEY}
  timeout: 20s
input:
  provider: command
  key_cmd: "xdotool key {{xdokey .Key}}"
  type_cmd: "xdotool type {{.Text}}"
  click_cmd: "xdotool mousemove {{.X}} {{.Y}} click --repeat {{.Clicks}} 1"
  focus_cmd: "wmctrl -a {{.Title}}"
  launch_cmd: "gtk-launch {{.App}}"
  url_cmd: "xdg-open {{.URL}}"
  system_cmd: "deskpilot-system {{.Action}}"
screen:
  capture_cmd: "scrot -o {{.Path}}"
  width: 2560
  height: 1440
detector:
  url: http://localhost:8000
  min_confidence: 0.05
voice:
  listen_timeout: 5s
resolver:
  max_candidates: 30
classifier:
  cache_ttl: 1m
templates:
  path: templates.yaml
  watch: true
log:
  level: debug
  file: /tmp/deskpilot.log
server:
  port: 9090
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "deskpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("DESKPILOT_TEST_KEY", "secret-key")
	path := writeConfig(t, validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "secret-key", cfg.Model.APIKey)
	assert.Equal(t, 20*time.Second, cfg.Model.Timeout.Duration)
	assert.Equal(t, "command", cfg.Input.Provider)
	assert.Equal(t, "xdotool type {{.Text}}", cfg.Input.TypeCmd)
	assert.Equal(t, 2560, cfg.Screen.Width)
	assert.Equal(t, 0.05, cfg.Detector.MinConfidence)
	assert.Equal(t, 5*time.Second, cfg.Voice.ListenTimeout.Duration)
	assert.Equal(t, 30, cfg.Resolver.MaxCandidates)
	assert.Equal(t, time.Minute, cfg.Classifier.CacheTTL.Duration)
	assert.True(t, cfg.Templates.Watch)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Model.Provider)
	assert.Equal(t, "claude", cfg.Model.Command)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout.Duration)
	assert.Equal(t, "dryrun", cfg.Input.Provider)
	assert.Equal(t, 1920, cfg.Screen.Width)
	assert.Equal(t, 1080, cfg.Screen.Height)
	assert.Equal(t, 30*time.Second, cfg.Detector.Timeout.Duration)
	assert.Equal(t, "prompt", cfg.Voice.Provider)
	assert.Equal(t, 7*time.Second, cfg.Voice.ListenTimeout.Duration)
	assert.Equal(t, 15*time.Second, cfg.Voice.PhraseLimit.Duration)
	assert.Equal(t, 50, cfg.Resolver.MaxCandidates)
	assert.Equal(t, 10*time.Minute, cfg.Classifier.CacheTTL.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))
	assert.Equal(t, "dryrun", cfg.Input.Provider)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "model: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "model:\n  timeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid duration "soon"`)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr []string
	}{
		{
			name:    "gemini without key",
			yaml:    "model:\n  provider: gemini\n",
			wantErr: []string{"model.api_key is required"},
		},
		{
			name:    "unknown model provider",
			yaml:    "model:\n  provider: openai\n",
			wantErr: []string{`model.provider must be`},
		},
		{
			name: "command input missing templates",
			yaml: "input:\n  provider: command\n  key_cmd: xdotool key {{.Key}}\n",
			wantErr: []string{
				"input.type_cmd is required",
				"input.system_cmd is required",
				"screen.capture_cmd is required",
				"detector.url is required",
			},
		},
		{
			name:    "unknown input provider",
			yaml:    "input:\n  provider: robot\n",
			wantErr: []string{`input.provider must be`},
		},
		{
			name:    "command voice without command",
			yaml:    "voice:\n  provider: command\n",
			wantErr: []string{"voice.command is required"},
		},
		{
			name:    "bad log level",
			yaml:    "log:\n  level: loud\n",
			wantErr: []string{"log.level must be"},
		},
		{
			name:    "bad port",
			yaml:    "server:\n  port: 70000\n",
			wantErr: []string{"server.port must be between"},
		},
		{
			name:    "confidence out of range",
			yaml:    "detector:\n  min_confidence: 1.5\n",
			wantErr: []string{"detector.min_confidence"},
		},
		{
			name:    "unclosed command template",
			yaml:    "input:\n  focus_cmd: \"wmctrl -a {{.Title\"\n",
			wantErr: []string{"input.focus_cmd: unclosed action"},
		},
		{
			name:    "unknown template func",
			yaml:    "voice:\n  command: \"stt {{shout .Timeout}}\"\n",
			wantErr: []string{"voice.command: parsing template"},
		},
		{
			name:    "negative timeout",
			yaml:    "detector:\n  timeout: -1s\n",
			wantErr: []string{"detector.timeout must be positive"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	_, err := Parse([]byte("model:\n  provider: x\ninput:\n  provider: y\nlog:\n  level: z\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.provider")
	assert.Contains(t, err.Error(), "input.provider")
	assert.Contains(t, err.Error(), "log.level")
}

func TestSizeCmd_SkipsFixedSize(t *testing.T) {
	cfg, err := Parse([]byte("screen:\n  size_cmd: xdpysize\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Screen.Width)
	assert.Equal(t, "xdpysize", cfg.Screen.SizeCmd)
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration{90 * time.Second}})
	require.NoError(t, err)
	assert.Equal(t, "d: 1m30s\n", string(out))
}
