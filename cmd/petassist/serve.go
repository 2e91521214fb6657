package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pet-assistant/backend/internal/api"
	"github.com/pet-assistant/backend/internal/engine"
	"github.com/pet-assistant/backend/internal/provider"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the matcher and chat over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			entry := a.logger.WithField("service", "petassist-api")
			entry.Info("Starting Pet Assistant API Service")

			catalog, err := a.loader.Get(ctx)
			if err != nil {
				return err
			}
			llm, err := provider.New(a.cfg.LLM, entry)
			if err != nil {
				return err
			}

			eng := engine.NewEngine(a.cfg, entry, catalog, llm)
			server := api.NewServer(eng, entry)

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return server.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SERVER_ADDR)")
	return cmd
}
