package main

import (
	"fmt"
	"io"

	"github.com/aretw0/fold/internal/presentation/graph"
	"github.com/aretw0/fold/internal/presentation/report"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show which regions a document would defer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}
		in, closeIn, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer closeIn()

		summary, err := app.Engine.Process(cmd.Context(), in, io.Discard, req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			fmt.Fprint(out, graph.GenerateMermaid(req.URL, summary))
			return nil
		}
		if report.IsTerminal(out) {
			report.PrintBanner(out, "inspect")
		}
		rendered, err := report.NewRenderer(out)(report.Summary(req.URL, summary))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	addRequestFlags(inspectCmd)
	inspectCmd.Flags().Bool("graph", false, "Print the region tree as a Mermaid flowchart")
	rootCmd.AddCommand(inspectCmd)
}
