package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/fold/internal/presentation/report"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Split an HTML document read from a file or stdin",
	Long: `Reads an HTML document, splits it at the critical line and writes the
result to stdout. --mode selects inline output, the above-the-fold half
(atf) or the below-the-fold payload (btf).`,
	Args: cobra.MaximumNArgs(1),
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

		out := bufio.NewWriter(cmd.OutOrStdout())
		summary, err := app.Engine.Process(cmd.Context(), in, out, req)
		if err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}

		if show, _ := cmd.Flags().GetBool("summary"); show {
			stderr := cmd.ErrOrStderr()
			rendered, err := report.NewRenderer(stderr)(report.Summary(req.URL, summary))
			if err != nil {
				return err
			}
			fmt.Fprintln(stderr, rendered)
		}
		return nil
	},
}

func init() {
	addRequestFlags(splitCmd)
	splitCmd.Flags().Bool("summary", false, "Print a region summary to stderr")
	rootCmd.AddCommand(splitCmd)
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("critical-line", "c", "", "Critical-line configuration for this document")
	cmd.Flags().String("url", "/", "Request URL of the document")
	cmd.Flags().StringP("mode", "m", "inline", "Serving mode: inline, atf or btf")
	cmd.Flags().Bool("flushed-early", false, "Treat the head as already sent")
	cmd.Flags().Bool("pass-through", false, "Copy the document unchanged")
}

func requestFromFlags(cmd *cobra.Command) (domain.Request, error) {
	modeText, _ := cmd.Flags().GetString("mode")
	mode, err := domain.ParseServingMode(modeText)
	if err != nil {
		return domain.Request{}, err
	}
	url, _ := cmd.Flags().GetString("url")
	flushed, _ := cmd.Flags().GetBool("flushed-early")
	pass, _ := cmd.Flags().GetBool("pass-through")

	req := domain.Request{URL: url, Mode: mode, FlushedEarly: flushed, PassThrough: pass}
	if cmd.Flags().Changed("critical-line") {
		text, _ := cmd.Flags().GetString("critical-line")
		req.ConfigText = &text
	}
	return req, nil
}

func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
