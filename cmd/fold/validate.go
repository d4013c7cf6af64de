package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/fold"
	"github.com/aretw0/fold/internal/presentation/report"
	"github.com/aretw0/fold/pkg/adapters/rules"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [critical-line]",
	Short: "Check a critical-line configuration or a rules file",
	Long: `Parses a critical-line configuration given as argument, or every rule of
a rules file given with --rules, and reports syntax errors and overlapping
regions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("rules"); path != "" {
			list, err := rules.Load(path)
			if err != nil {
				return err
			}
			for _, r := range list {
				fmt.Fprintf(out, "%s\t%s\n", r.Path, r.Config.String())
			}
			fmt.Fprintf(out, "%d rules are valid\n", len(list))
			return nil
		}

		if len(args) == 0 {
			return errors.New("a critical-line configuration or --rules is required")
		}
		cfg, err := fold.ParseConfig(args[0])
		if err != nil {
			return err
		}
		rendered, err := report.NewRenderer(out)(report.Config(cfg))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	validateCmd.Flags().String("rules", "", "Validate a rules file instead")
	rootCmd.AddCommand(validateCmd)
}
