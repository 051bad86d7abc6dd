package auth

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lookyswappy/cmd/client/cmd/types"
	"lookyswappy/internal/app/client"
)

var RefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		if !app.IsRegistered() {
			return fmt.Errorf("device not registered, run: lookyswappy auth register")
		}

		if err := app.Refresh(cmd.Context()); err != nil {
			return err
		}

		color.Green("Token refreshed")
		return nil
	},
}
