package main

import (
	"fmt"
	"os"

	"github.com/aretw0/fold/internal/cli"
	"github.com/aretw0/fold/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fold",
	Short: "fold splits HTML pages at the critical line",
	Long: `fold streams HTML documents and moves below-the-fold regions out of the
main response, so the visible part of a page arrives first.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a fold.yaml settings file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadApp reads settings and wires an App for the command.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}
	return cli.NewApp(cfg, cmd.ErrOrStderr())
}
