package cli

import (
	"github.com/spf13/cobra"

	"github.com/gofast/gofast/internal/transfer"
)

var createCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"c", "new"},
	Short:   "Create a room and wait for a peer",
	Long: `Create a room on the signaling server and print its code and link.
The session starts as soon as a peer joins.

Examples:
  gofast create
  gofast create --dir ~/Downloads`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context(), transfer.RoleInitiator, "")
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
