package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DachengChen/paiERP/chat"
	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON and websocket API.

Runtime options come from paierp.yaml in the working directory and
PAIERP_* environment variables (PAIERP_ADDR, PAIERP_REDIS_URL,
PAIERP_LOG_LEVEL, PAIERP_SETTINGS, PAIERP_RATE_LIMIT, PAIERP_RATE_BURST,
PAIERP_SESSION_TTL). Without PAIERP_REDIS_URL sessions live in memory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServerConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		if logLevel == "" {
			logLevel = cfg.LogLevel
		}
		if settingsPath == "" {
			settingsPath = cfg.SettingsPath
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := bootstrap(ctx, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		var store chat.Store = chat.NewMemoryStore()
		if cfg.RedisURL != "" {
			rs, err := chat.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
			if err != nil {
				return fmt.Errorf("connect session store: %w", err)
			}
			defer rs.Close()
			store = rs
		}

		srv := server.New(server.Deps{
			Assistant: rt.assistant,
			Executor:  rt.executor,
			Settings:  rt.settings,
			Store:     store,
			Config:    cfg,
		})
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides PAIERP_ADDR)")
}
