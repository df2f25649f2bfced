// Package cmd contains all Cobra commands for paiERP.
//
// Design decision: the root command launches the TUI directly. Provider
// settings can be changed inside the TUI, with `paierp providers`, or in
// ~/.paierp/config.json.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DachengChen/paiERP/tui"
)

var (
	settingsPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "paierp",
	Short: "Natural-language ERP assistant with TUI and HTTP API",
	Long: `paiERP answers business questions about your ERP data:
  • Intent detection and query synthesis for finance, sales, inventory,
    customer and analytics questions
  • Demo data, NetSuite REST or a PostgreSQL replica as the data source
  • OpenAI, Claude, Gemini or Azure OpenAI for the analysis
  • Terminal chat UI, one-shot CLI and an HTTP/websocket API

Run 'paierp' to start the TUI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.Close()

		return tui.Start(rt.assistant, tui.Options{
			Settings: rt.settings,
			Backend:  string(rt.settings.Backend),
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "settings file (default ~/.paierp/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(askCmd, providersCmd, serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
