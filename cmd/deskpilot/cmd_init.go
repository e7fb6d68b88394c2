package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shahar-caura/deskpilot/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize deskpilot.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fi, err := os.Stdin.Stat()
			if err != nil {
				return fmt.Errorf("checking stdin: %w", err)
			}
			if fi.Mode()&os.ModeCharDevice == 0 {
				return fmt.Errorf("deskpilot init requires an interactive terminal")
			}
			return cmdInit(os.Stdin, cmd.OutOrStdout(), ".")
		},
	}
}

type initData struct {
	ModelProvider string
	ModelName     string
	InputProvider string
	CaptureCmd    string
	DetectorURL   string
	VoiceProvider string
	VoiceCommand  string
	LogFile       string
}

// cmdInit runs an interactive wizard that writes deskpilot.yaml into dir.
func cmdInit(in io.Reader, out io.Writer, dir string) error {
	configPath := filepath.Join(dir, defaultConfigPath)
	scanner := bufio.NewScanner(in)

	if _, err := os.Stat(configPath); err == nil {
		if !promptYesNo(scanner, out, defaultConfigPath+" already exists. Overwrite?", false) {
			return fmt.Errorf("aborted")
		}
	}

	fmt.Fprintln(out, "Initializing deskpilot.yaml...")
	var data initData

	fmt.Fprintln(out, "\n=== Model ===")
	data.ModelProvider = promptString(scanner, out, "Model provider (none/gemini/cli)", "none")
	if data.ModelProvider == "gemini" {
		data.ModelName = promptString(scanner, out, "Gemini model", "gemini-2.0-flash")
	}

	fmt.Fprintln(out, "\n=== Input ===")
	if promptYesNo(scanner, out, "Drive the desktop with xdotool? (No logs actions only)", false) {
		data.InputProvider = "command"
		data.CaptureCmd = promptString(scanner, out, "Screenshot command", "scrot -o {{.Path}}")
		data.DetectorURL = promptString(scanner, out, "Element detector URL", "http://localhost:8000")
		if data.DetectorURL == "" {
			return fmt.Errorf("detector URL is required when driving the desktop")
		}
	} else {
		data.InputProvider = "dryrun"
	}

	fmt.Fprintln(out, "\n=== Voice ===")
	data.VoiceCommand = promptString(scanner, out, "Speech-to-text command (empty to type instead)", "")
	data.VoiceProvider = "prompt"
	if data.VoiceCommand != "" {
		data.VoiceProvider = "command"
	}

	data.LogFile = promptString(scanner, out, "\nLog file (optional)", "")

	var buf bytes.Buffer
	if err := template.Must(template.New("deskpilot.yaml").Parse(configTemplate)).Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}
	if _, err := config.Parse(buf.Bytes()); err != nil && data.ModelProvider != "gemini" {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	fmt.Fprintf(out, "\nWrote %s\n", configPath)

	if data.ModelProvider == "gemini" {
		envPath := filepath.Join(dir, config.ProjectEnvFile)
		if err := writeEnvPlaceholder(envPath, "GEMINI_API_KEY"); err != nil {
			fmt.Fprintf(out, "Warning: could not write %s: %v\n", envPath, err)
		} else {
			fmt.Fprintf(out, "Set GEMINI_API_KEY in %s\n", envPath)
		}
	}
	return nil
}

// writeEnvPlaceholder appends key= to path unless the key is already there.
func writeEnvPlaceholder(path, key string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if vars, err := godotenv.Unmarshal(string(existing)); err == nil {
		if _, ok := vars[key]; ok {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s=\n", key)
	return err
}

func promptString(scanner *bufio.Scanner, out io.Writer, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	scanner.Scan()
	input := strings.TrimSpace(scanner.Text())
	if input == "" {
		return defaultVal
	}
	return input
}

func promptYesNo(scanner *bufio.Scanner, out io.Writer, label string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(out, "%s %s: ", label, hint)
	scanner.Scan()
	input := strings.TrimSpace(strings.ToLower(scanner.Text()))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

const configTemplate = `model:
  provider: {{.ModelProvider}}
{{- if eq .ModelProvider "gemini"}}
  name: {{.ModelName}}
  api_key: ${GEMINI_API_KEY}
{{- end}}
  timeout: 30s

input:
  provider: {{.InputProvider}}
{{- if eq .InputProvider "command"}}
  key_cmd: "xdotool key {{"{{"}}xdokey .Key{{"}}"}}"
  type_cmd: "xdotool type --delay 20 -- {{"{{"}}.Text{{"}}"}}"
  click_cmd: "xdotool mousemove {{"{{"}}.X{{"}}"}} {{"{{"}}.Y{{"}}"}} click --repeat {{"{{"}}.Clicks{{"}}"}} {{"{{"}}if eq .Button \"right\"{{"}}"}}3{{"{{"}}else{{"}}"}}1{{"{{"}}end{{"}}"}}"
  focus_cmd: "wmctrl -a {{"{{"}}.Title{{"}}"}}"
  launch_cmd: "gtk-launch {{"{{"}}.App{{"}}"}}"
  url_cmd: "xdg-open {{"{{"}}.URL{{"}}"}}"
  system_cmd: "deskpilot-system {{"{{"}}.Action{{"}}"}}"

screen:
  capture_cmd: "{{.CaptureCmd}}"

detector:
  url: {{.DetectorURL}}
  min_confidence: 0.1
{{- end}}

voice:
  provider: {{.VoiceProvider}}
{{- if .VoiceCommand}}
  command: "{{.VoiceCommand}}"
{{- end}}
  listen_timeout: 7s
  phrase_limit: 15s

log:
  level: info
{{- if .LogFile}}
  file: {{.LogFile}}
{{- end}}

server:
  port: 8080
`
