package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strand/loom/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compile and query API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Serve.Addr = serveAddr
		}
		logger.Info("starting server", zap.String("addr", cfg.Serve.Addr))
		return server.New(cfg, logger).ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
