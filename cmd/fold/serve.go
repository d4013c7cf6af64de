package main

import (
	"context"

	"github.com/aretw0/fold/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a static site through the splitter",
	Long: `Starts an HTTP server that splits every HTML page of the site directory.
Per-page critical lines come from the configured store, which a rules file
can populate and keep up to date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("listen") {
			app.Config.Server.Listen, _ = cmd.Flags().GetString("listen")
		}
		if cmd.Flags().Changed("site") {
			app.Config.Site.Root, _ = cmd.Flags().GetString("site")
		}
		if cmd.Flags().Changed("rules") {
			app.Config.Rules.File, _ = cmd.Flags().GetString("rules")
		}
		if cmd.Flags().Changed("watch") {
			app.Config.Rules.Watch, _ = cmd.Flags().GetBool("watch")
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if err := cli.RunServe(ctx, app); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			app.Logger.Info("fold server stopped", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "Address to listen on")
	serveCmd.Flags().String("site", ".", "Directory holding the site")
	serveCmd.Flags().String("rules", "", "Rules file to load into the store")
	serveCmd.Flags().Bool("watch", false, "Reload the rules file when it changes")
	rootCmd.AddCommand(serveCmd)
}
