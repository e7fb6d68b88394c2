package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shahar-caura/deskpilot/internal/plan"
)

func newTemplatesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates [key]",
		Short: "List plan templates, or print one",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var keys []string
			for _, k := range plan.Default().Keys() {
				if strings.HasPrefix(k, strings.ToUpper(toComplete)) {
					keys = append(keys, k)
				}
			}
			return keys, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			lib, err := newTemplates(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, k := range lib.Keys() {
					t, _ := lib.Lookup(k)
					fmt.Fprintf(out, "%-24s %2d steps\n", k, t.Len())
				}
				return nil
			}

			t, ok := lib.Lookup(args[0])
			if !ok {
				return fmt.Errorf("no template for %q", args[0])
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(t); err != nil {
				return fmt.Errorf("encoding template: %w", err)
			}
			return enc.Close()
		},
	}
}
