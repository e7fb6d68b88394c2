package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shahar-caura/deskpilot/internal/config"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	config.LoadEnvFiles()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("deskpilot failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:   "deskpilot [command text...]",
		Short: "Turn spoken or typed commands into desktop actions",
		Long: `deskpilot classifies a natural-language command, plans the keyboard and
mouse steps it needs and executes them.

Anything that is not a subcommand is run as a command:

  deskpilot open chrome
  deskpilot send hello to mom`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBareWords(cmd, logger, &opts, args)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to deskpilot.yaml")
	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "log input actions instead of performing them")

	root.AddCommand(
		newRunCmd(logger, &opts),
		newClassifyCmd(logger, &opts),
		newExtractCmd(logger, &opts),
		newPlanCmd(logger, &opts),
		newTemplatesCmd(&opts),
		newDescribeCmd(logger, &opts),
		newServeCmd(logger, &opts),
		newInitCmd(),
		newCompletionCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deskpilot version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "deskpilot %s\n", version)
		},
	}
}
