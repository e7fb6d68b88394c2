package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/shahar-caura/deskpilot/internal/config"
	"github.com/shahar-caura/deskpilot/internal/events"
	"github.com/shahar-caura/deskpilot/internal/executor"
	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/shahar-caura/deskpilot/internal/logging"
	"github.com/shahar-caura/deskpilot/internal/pipeline"
	"github.com/shahar-caura/deskpilot/internal/plan"
	"github.com/shahar-caura/deskpilot/internal/provider"
	"github.com/shahar-caura/deskpilot/internal/provider/detector"
	"github.com/shahar-caura/deskpilot/internal/provider/input"
	"github.com/shahar-caura/deskpilot/internal/provider/screen"
	"github.com/shahar-caura/deskpilot/internal/provider/vlm"
	"github.com/shahar-caura/deskpilot/internal/provider/voice"
	"github.com/shahar-caura/deskpilot/internal/resolver"
)

const defaultConfigPath = "deskpilot.yaml"

type globalOptions struct {
	configPath string
	dryRun     bool
}

// app is everything a command needs, wired from config.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	templates *plan.Library
	resolver  *resolver.Resolver
	screen    provider.Screen
	pipeline  *pipeline.Pipeline
	closer    io.Closer
}

// loadConfig reads the config file. A missing default file yields the
// built-in dry-run configuration; a missing explicit file is an error.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newApp wires providers, classifier, templates and pipeline. pub receives
// pipeline events; nil discards them.
func newApp(ctx context.Context, opts *globalOptions, bootstrap *slog.Logger, pub events.Publisher) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dryRun {
		cfg.Input.Provider = "dryrun"
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closer: closer}

	cls, err := newClassifier(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.templates, err = newTemplates(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	model, err := newModel(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.resolver = resolver.New(model, cfg.Resolver.MaxCandidates, logger)

	if cfg.Screen.CaptureCmd != "" {
		a.screen = screen.New(cfg.Screen.CaptureCmd, cfg.Screen.SizeCmd, cfg.Screen.Width, cfg.Screen.Height, cfg.Screen.Dir, logger)
	}
	var det provider.Detector
	if cfg.Detector.URL != "" {
		det = detector.New(cfg.Detector.URL, cfg.Detector.Token, cfg.Detector.MinConfidence, cfg.Detector.Timeout.Duration)
	}

	if pub == nil {
		pub = events.Discard
	}
	exec := executor.New(newInput(cfg, logger), a.screen, det, a.resolver, pub, logger)

	a.pipeline = pipeline.New(pipeline.Components{
		Classifier: cls,
		Templates:  a.templates,
		Executor:   exec,
		Voice:      newVoice(cfg, logger),
		Events:     pub,
	}, pipeline.Options{
		ListenTimeout: cfg.Voice.ListenTimeout.Duration,
		PhraseLimit:   cfg.Voice.PhraseLimit.Duration,
	}, logger)

	return a, nil
}

// Close flushes the log file, if any.
func (a *app) Close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func newClassifier(cfg *config.Config, logger *slog.Logger) (*intent.Classifier, error) {
	examples := intent.DefaultExamples()
	if cfg.Classifier.TrainingPath != "" {
		var err error
		examples, err = intent.LoadExamples(cfg.Classifier.TrainingPath)
		if err != nil {
			return nil, fmt.Errorf("loading training data: %w", err)
		}
	}

	train := intent.DefaultTrainOptions()
	if cfg.Classifier.C > 0 {
		train.C = cfg.Classifier.C
	}
	if cfg.Classifier.Iterations > 0 {
		train.Iterations = cfg.Classifier.Iterations
	}
	return intent.New(examples, intent.Options{Train: train, CacheTTL: cfg.Classifier.CacheTTL.Duration}, logger)
}

func newTemplates(cfg *config.Config) (*plan.Library, error) {
	if cfg.Templates.Path == "" {
		return plan.Default(), nil
	}
	lib, err := plan.Load(cfg.Templates.Path)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return lib, nil
}

func newModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (provider.Model, error) {
	switch cfg.Model.Provider {
	case "gemini":
		return vlm.NewGemini(ctx, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.Timeout.Duration, logger)
	case "cli":
		c := vlm.NewClaude(cfg.Model.Timeout.Duration, logger)
		c.Binary = cfg.Model.Command
		return c, nil
	default:
		return nil, nil
	}
}

func newInput(cfg *config.Config, logger *slog.Logger) provider.Input {
	if cfg.Input.Provider == "command" {
		return input.New(input.Commands{
			Key:    cfg.Input.KeyCmd,
			Type:   cfg.Input.TypeCmd,
			Click:  cfg.Input.ClickCmd,
			Focus:  cfg.Input.FocusCmd,
			Launch: cfg.Input.LaunchCmd,
			URL:    cfg.Input.URLCmd,
			System: cfg.Input.SystemCmd,
		}, logger)
	}
	return input.NewDryRun(logger)
}

func newVoice(cfg *config.Config, logger *slog.Logger) provider.Voice {
	if cfg.Voice.Provider == "command" {
		return voice.NewCommand(cfg.Voice.Command, logger)
	}
	return voice.NewPrompt(os.Stdin, os.Stderr)
}
