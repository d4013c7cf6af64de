package main

import (
	"fmt"

	"github.com/aretw0/fold"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fold",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fold version %s\n", fold.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
