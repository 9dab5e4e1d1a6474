package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spicecat/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification HTTP API",
		Long: `Serve the classification API until interrupted.

Endpoints:
  GET  /health
  POST /classify
  POST /classify/bulk
  POST /classify/bulk/stream      (application/x-ndjson)
  GET  /merchants, GET /merchants/{id}, POST /merchants
  GET  /transactions/{id}, POST /transactions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					slog.Error("failed to close database", "error", cerr)
				}
			}()

			if err := store.WarmMerchantCache(ctx); err != nil {
				slog.Warn("Failed to warm merchant cache", "error", err)
			}

			engine, err := newEngine(store)
			if err != nil {
				return err
			}

			return server.New(engine, store).ListenAndServe(ctx, viper.GetString("server.addr"))
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
