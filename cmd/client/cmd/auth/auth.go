package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for device identity operations.
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Device registration and tokens",
	Long:  `Register this device with the server and manage its access token.`,
}

func init() {
	AuthCmd.AddCommand(RegisterCmd)
	AuthCmd.AddCommand(RefreshCmd)
}
