package game

import (
	"fmt"

	"github.com/spf13/cobra"

	"lookyswappy/cmd/client/cmd/types"
	"lookyswappy/internal/app/client"
)

var GamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List this device's games on the server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		games, err := app.Games(cmd.Context())
		if err != nil {
			return err
		}

		if len(games) == 0 {
			fmt.Println("No games yet.")
			return nil
		}

		for _, g := range games {
			name := "(unnamed)"
			if g.Name != nil && *g.Name != "" {
				name = *g.Name
			}
			fmt.Printf("%-36s  %-20s  to %d  %s\n", g.ID, name, g.TargetScore, g.Status)
		}

		return nil
	},
}
