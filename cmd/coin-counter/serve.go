package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/coin-counter/internal/coins"
	"github.com/ironsheep/coin-counter/internal/logger"
	"github.com/ironsheep/coin-counter/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the coin counting tools over MCP (stdin/stdout)",
		Long: `Serve runs a JSON-RPC 2.0 MCP server on stdin/stdout. Logs go to stderr
so they never mix with protocol messages. Configure it as a stdio server
in your MCP client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coinsCfg, err := cfg.Coins()
			if err != nil {
				return err
			}
			counter, err := coins.New(coinsCfg)
			if err != nil {
				return err
			}

			logger.WithField("version", Version).Info("coin counter MCP server starting")

			srv := server.New(counter)
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
