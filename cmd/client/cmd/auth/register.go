package auth

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lookyswappy/cmd/client/cmd/types"
	"lookyswappy/internal/app/client"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this device with the server",
	Long: `Registers the local device id with the Lookyswappy server and
stores the returned access token. Safe to run again on the same
device: the server recognizes the id and issues a fresh token.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		deviceID, err := app.Register(cmd.Context())
		if err != nil {
			return err
		}

		color.Green("Device registered: %s", deviceID)
		return nil
	},
}
