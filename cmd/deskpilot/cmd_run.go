package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shahar-caura/deskpilot/internal/pipeline"
)

func newRunCmd(logger *slog.Logger, opts *globalOptions) *cobra.Command {
	var listen bool

	cmd := &cobra.Command{
		Use:   "run [command text...]",
		Short: "Classify, plan and execute a command",
		Example: `  deskpilot run open chrome
  deskpilot run --voice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen && len(args) > 0 {
				return fmt.Errorf("cannot combine --voice with command text")
			}
			if !listen && len(args) == 0 {
				return fmt.Errorf("provide command text or --voice")
			}
			return cmdRun(cmd, logger, opts, strings.Join(args, " "), listen)
		},
	}

	cmd.Flags().BoolVar(&listen, "voice", false, "capture the command from the voice provider")
	return cmd
}

// runBareWords treats arguments that are not a subcommand as command text.
func runBareWords(cmd *cobra.Command, logger *slog.Logger, opts *globalOptions, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	return cmdRun(cmd, logger, opts, strings.Join(args, " "), false)
}

func cmdRun(cmd *cobra.Command, logger *slog.Logger, opts *globalOptions, text string, listen bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	prog := newProgress(cmd.ErrOrStderr())
	a, err := newApp(ctx, opts, logger, prog)
	if err != nil {
		return err
	}
	defer a.Close()

	var inv *pipeline.Invocation
	if listen {
		inv, err = a.pipeline.Listen(ctx)
	} else {
		inv, err = a.pipeline.Run(ctx, text)
	}
	if err != nil {
		if listen {
			return err
		}
		return fmt.Errorf("could not run %q: %w", text, err)
	}

	t := newTranscript(cmd.OutOrStdout())
	t.skips = prog.skipped()
	t.invocation(inv, true)
	if !inv.Result.Success {
		return errors.New(inv.Result.Error)
	}
	return nil
}
