package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newDescribeCmd(logger *slog.Logger, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Capture the screen and describe it with the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.screen == nil {
				return errors.New("describe needs screen.capture_cmd in the config")
			}
			path, err := a.screen.Capture(cmd.Context())
			if err != nil {
				return err
			}
			defer os.Remove(path)

			img, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading screenshot: %w", err)
			}
			summary, err := a.resolver.Summarize(cmd.Context(), img)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
