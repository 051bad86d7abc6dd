package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/app/server/config"
	"lookyswappy/internal/utils/logger"
)

var (
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lookyswappy-server",
	Short: "Lookyswappy sync server",
	Long: `Lookyswappy server — the authoritative store for the card game's
replicated data. Devices register for a token, then reconcile their
local replicas through the pull/push sync endpoints.`,
	PersistentPreRun: setup,
	SilenceUsage:     true,
	SilenceErrors:    true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) {
	cfg = config.MustLoad()
	log = logger.New(cfg.Env)
}
