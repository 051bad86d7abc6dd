package cmd

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lookyswappy/internal/app/server/api"
	"lookyswappy/internal/infrastructure/storage/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	storage, err := postgres.New(cfg)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer storage.Close()

	mux := api.New(storage, cfg, log)

	color.Green("Lookyswappy server listening on %s", cfg.Server.RunAddress)
	log.Info("server starting", "address", cfg.Server.RunAddress, "env", cfg.Env)

	if err := http.ListenAndServe(cfg.Server.RunAddress, mux); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
