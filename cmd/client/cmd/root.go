package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"lookyswappy/cmd/client/cmd/auth"
	"lookyswappy/cmd/client/cmd/game"
	syncCmd "lookyswappy/cmd/client/cmd/sync"
	"lookyswappy/cmd/client/cmd/types"
	"lookyswappy/internal/app/client"
	"lookyswappy/internal/app/client/config"
	"lookyswappy/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "lookyswappy",
	Short: "Lookyswappy - sync client for the score keeping server",
	Long: `Lookyswappy registers this device with the score keeping server,
pulls the server's change history, and pushes change batches prepared
by the caller. Game data is never stored locally; only the device
identity, its token, and the last sync watermark are kept.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg = config.MustLoad()

	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	log = logger.New(cfg.Env)

	var err error
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to init application: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Lookyswappy server address")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(syncCmd.SyncCmd)
	rootCmd.AddCommand(game.GamesCmd)
}
