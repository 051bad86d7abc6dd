package sync

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lookyswappy/cmd/client/cmd/types"
	"lookyswappy/internal/app/client"
)

var dumpJSON bool

// SyncCmd is the parent command for the pull/push protocol operations.
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile with the server",
	Long: `Pull server-side changes since the last watermark, or push a
batch of local changes. The watermark is stored locally and advanced
on every pull; push sends it along so the server can detect stale
batches.`,
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch changes since the last pull",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		resp, err := app.Pull(cmd.Context())
		if err != nil {
			return err
		}

		if dumpJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		color.Green("Pulled %d records, watermark advanced to %v",
			client.CountChanges(resp.Changes), resp.Timestamp)
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <changes.json>",
	Short: "Send a batch of changes to the server",
	Long: `Sends the change set in the given JSON file, shaped like the
"changes" object of a pull response. The stored watermark from the
last pull is attached; a stale watermark gets the whole batch
rejected and a fresh pull is required before retrying.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok || app == nil {
			return fmt.Errorf("application not initialized")
		}

		resp, err := app.Push(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if !resp.OK {
			color.Yellow("Push rejected:")
			for _, e := range resp.Errors {
				fmt.Printf("  - %s\n", e)
			}
			color.Yellow("Run 'lookyswappy sync pull' and push again.")
			return nil
		}

		color.Green("Push accepted")
		return nil
	},
}

func init() {
	pullCmd.Flags().BoolVar(&dumpJSON, "json", false, "print the full pull response as JSON")

	SyncCmd.AddCommand(pullCmd)
	SyncCmd.AddCommand(pushCmd)
}
