package main

import (
	"fmt"

	"github.com/aretw0/fold"
	"github.com/aretw0/fold/internal/cli"
	"github.com/aretw0/fold/pkg/adapters/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage stored per-page critical lines",
}

var rulesPutCmd = &cobra.Command{
	Use:   "put <path> <critical-line>",
	Short: "Store the critical line for a URL path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := fold.ParseConfig(args[1])
		if err != nil {
			return err
		}
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Store.Save(cmd.Context(), args[0], cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[0], cfg.String())
		return nil
	},
}

var rulesGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print the stored critical line for a URL path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		cfg, err := app.Store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
		return nil
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Remove the stored critical line for a URL path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Store.Delete(cmd.Context(), args[0])
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List URL paths with a stored critical line",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		keys, err := app.Store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var rulesSyncCmd = &cobra.Command{
	Use:   "sync <rules-file>",
	Short: "Load a rules file into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		prune, _ := cmd.Flags().GetBool("prune")
		res, err := cli.NewSyncer(app, rules.WithPrune(prune)).SyncFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d, pruned %d\n", len(res.Saved), len(res.Pruned))
		return nil
	},
}

func init() {
	rulesSyncCmd.Flags().Bool("prune", false, "Delete stored entries the file does not name")
	rulesCmd.AddCommand(rulesPutCmd, rulesGetCmd, rulesDeleteCmd, rulesListCmd, rulesSyncCmd)
	rootCmd.AddCommand(rulesCmd)
}
