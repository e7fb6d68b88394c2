package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func newClassifyCmd(logger *slog.Logger, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <command text...>",
		Short: "Show the category a command is classified as",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			inv, err := a.pipeline.Plan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\n", inv.Classification.Category, inv.Classification.Confidence)
			return nil
		},
	}
}

func newExtractCmd(logger *slog.Logger, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <command text...>",
		Short: "Classify a command and show its extracted slots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			inv, err := a.pipeline.Plan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			t := newTranscript(cmd.OutOrStdout())
			t.classification(inv.Classification)
			t.slots(inv.Slots)
			return nil
		},
	}
}

func newPlanCmd(logger *slog.Logger, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <command text...>",
		Short: "Show the steps a command would run, without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			inv, err := a.pipeline.Plan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			newTranscript(cmd.OutOrStdout()).invocation(inv, false)
			return nil
		},
	}
}
