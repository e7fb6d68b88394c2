package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shahar-caura/deskpilot/internal/cmdline"
)

// Duration wraps time.Duration with YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Config is the top-level deskpilot configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Input      InputConfig      `yaml:"input"`
	Screen     ScreenConfig     `yaml:"screen"`
	Detector   DetectorConfig   `yaml:"detector"`
	Voice      VoiceConfig      `yaml:"voice"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Templates  TemplatesConfig  `yaml:"templates"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

// ModelConfig selects the vision-language model used for grounding.
type ModelConfig struct {
	Provider string   `yaml:"provider"` // none | gemini | cli
	Name     string   `yaml:"name"`
	APIKey   string   `yaml:"api_key"`
	Command  string   `yaml:"command"`
	Timeout  Duration `yaml:"timeout"`
}

// InputConfig selects how key, mouse and window actions are injected.
type InputConfig struct {
	Provider  string `yaml:"provider"` // dryrun | command
	KeyCmd    string `yaml:"key_cmd"`
	TypeCmd   string `yaml:"type_cmd"`
	ClickCmd  string `yaml:"click_cmd"`
	FocusCmd  string `yaml:"focus_cmd"`
	LaunchCmd string `yaml:"launch_cmd"`
	URLCmd    string `yaml:"url_cmd"`
	SystemCmd string `yaml:"system_cmd"`
}

type ScreenConfig struct {
	CaptureCmd string `yaml:"capture_cmd"`
	SizeCmd    string `yaml:"size_cmd"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Dir        string `yaml:"dir"`
}

type DetectorConfig struct {
	URL           string   `yaml:"url"`
	Token         string   `yaml:"token"`
	MinConfidence float64  `yaml:"min_confidence"`
	Timeout       Duration `yaml:"timeout"`
}

// VoiceConfig selects how spoken input is captured. An empty provider reads
// typed lines from the terminal.
type VoiceConfig struct {
	Provider      string   `yaml:"provider"` // prompt | command
	Command       string   `yaml:"command"`
	ListenTimeout Duration `yaml:"listen_timeout"`
	PhraseLimit   Duration `yaml:"phrase_limit"`
}

type ResolverConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
}

type ClassifierConfig struct {
	TrainingPath string   `yaml:"training_path"`
	CacheTTL     Duration `yaml:"cache_ttl"`
	C            float64  `yaml:"c"`
	Iterations   int      `yaml:"iterations"`
}

type TemplatesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

const (
	defaultModelTimeout    = 30 * time.Second
	defaultDetectorTimeout = 30 * time.Second
	defaultListenTimeout   = 7 * time.Second
	defaultPhraseLimit     = 15 * time.Second
	defaultCacheTTL        = 10 * time.Minute
	defaultMaxCandidates   = 50
	defaultWidth           = 1920
	defaultHeight          = 1080
	defaultPort            = 8080
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 3
)

// Load reads, expands env vars, parses, and validates a deskpilot config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse expands env vars in data, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists: dry-run
// input, no model, typed voice input.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = "none"
	}
	if cfg.Model.Command == "" {
		cfg.Model.Command = "claude"
	}
	if cfg.Model.Timeout.Duration == 0 {
		cfg.Model.Timeout.Duration = defaultModelTimeout
	}
	if cfg.Input.Provider == "" {
		cfg.Input.Provider = "dryrun"
	}
	if cfg.Screen.Width == 0 && cfg.Screen.SizeCmd == "" {
		cfg.Screen.Width = defaultWidth
	}
	if cfg.Screen.Height == 0 && cfg.Screen.SizeCmd == "" {
		cfg.Screen.Height = defaultHeight
	}
	if cfg.Detector.Timeout.Duration == 0 {
		cfg.Detector.Timeout.Duration = defaultDetectorTimeout
	}
	if cfg.Voice.Provider == "" {
		cfg.Voice.Provider = "prompt"
	}
	if cfg.Voice.ListenTimeout.Duration == 0 {
		cfg.Voice.ListenTimeout.Duration = defaultListenTimeout
	}
	if cfg.Voice.PhraseLimit.Duration == 0 {
		cfg.Voice.PhraseLimit.Duration = defaultPhraseLimit
	}
	if cfg.Resolver.MaxCandidates == 0 {
		cfg.Resolver.MaxCandidates = defaultMaxCandidates
	}
	if cfg.Classifier.CacheTTL.Duration == 0 {
		cfg.Classifier.CacheTTL.Duration = defaultCacheTTL
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaultLogMaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = defaultLogMaxBackups
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Model.Provider {
	case "none":
	case "gemini":
		if cfg.Model.APIKey == "" {
			errs = append(errs, errors.New("model.api_key is required when model.provider is gemini"))
		}
	case "cli":
		if cfg.Model.Command == "" {
			errs = append(errs, errors.New("model.command is required when model.provider is cli"))
		}
	default:
		errs = append(errs, fmt.Errorf("model.provider must be \"none\", \"gemini\" or \"cli\", got %q", cfg.Model.Provider))
	}
	if cfg.Model.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("model.timeout must be positive"))
	}

	switch cfg.Input.Provider {
	case "dryrun":
	case "command":
		for _, f := range []struct{ name, val string }{
			{"key_cmd", cfg.Input.KeyCmd},
			{"type_cmd", cfg.Input.TypeCmd},
			{"click_cmd", cfg.Input.ClickCmd},
			{"focus_cmd", cfg.Input.FocusCmd},
			{"launch_cmd", cfg.Input.LaunchCmd},
			{"url_cmd", cfg.Input.URLCmd},
			{"system_cmd", cfg.Input.SystemCmd},
		} {
			if f.val == "" {
				errs = append(errs, fmt.Errorf("input.%s is required when input.provider is command", f.name))
			}
		}
		if cfg.Screen.CaptureCmd == "" {
			errs = append(errs, errors.New("screen.capture_cmd is required when input.provider is command"))
		}
		if cfg.Detector.URL == "" {
			errs = append(errs, errors.New("detector.url is required when input.provider is command"))
		}
	default:
		errs = append(errs, fmt.Errorf("input.provider must be \"dryrun\" or \"command\", got %q", cfg.Input.Provider))
	}

	if cfg.Screen.SizeCmd == "" && (cfg.Screen.Width <= 0 || cfg.Screen.Height <= 0) {
		errs = append(errs, errors.New("screen.width and screen.height must be positive"))
	}
	if cfg.Detector.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("detector.timeout must be positive"))
	}
	if cfg.Detector.MinConfidence < 0 || cfg.Detector.MinConfidence > 1 {
		errs = append(errs, errors.New("detector.min_confidence must be between 0 and 1"))
	}

	switch cfg.Voice.Provider {
	case "prompt":
	case "command":
		if cfg.Voice.Command == "" {
			errs = append(errs, errors.New("voice.command is required when voice.provider is command"))
		}
	default:
		errs = append(errs, fmt.Errorf("voice.provider must be \"prompt\" or \"command\", got %q", cfg.Voice.Provider))
	}
	if cfg.Voice.ListenTimeout.Duration <= 0 || cfg.Voice.PhraseLimit.Duration <= 0 {
		errs = append(errs, errors.New("voice.listen_timeout and voice.phrase_limit must be positive"))
	}

	if cfg.Resolver.MaxCandidates < 0 {
		errs = append(errs, errors.New("resolver.max_candidates must not be negative"))
	}
	if cfg.Classifier.C < 0 || cfg.Classifier.Iterations < 0 {
		errs = append(errs, errors.New("classifier.c and classifier.iterations must not be negative"))
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level))
	}

	for _, f := range []struct{ name, val string }{
		{"input.key_cmd", cfg.Input.KeyCmd},
		{"input.type_cmd", cfg.Input.TypeCmd},
		{"input.click_cmd", cfg.Input.ClickCmd},
		{"input.focus_cmd", cfg.Input.FocusCmd},
		{"input.launch_cmd", cfg.Input.LaunchCmd},
		{"input.url_cmd", cfg.Input.URLCmd},
		{"input.system_cmd", cfg.Input.SystemCmd},
		{"screen.capture_cmd", cfg.Screen.CaptureCmd},
		{"screen.size_cmd", cfg.Screen.SizeCmd},
		{"voice.command", cfg.Voice.Command},
	} {
		if f.val == "" {
			continue
		}
		if _, err := cmdline.Parse(f.val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port))
	}

	return errors.Join(errs...)
}
