package cli

import (
	"github.com/spf13/cobra"

	"github.com/gofast/gofast/internal/signaling"
	"github.com/gofast/gofast/internal/transfer"
)

var joinCmd = &cobra.Command{
	Use:     "join <code|link>",
	Aliases: []string{"j"},
	Short:   "Join a room by code or share link",
	Long: `Join the room another peer created.

Examples:
  gofast join 482913
  gofast join https://gofast.onrender.com/r/482913`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := signaling.ParseCode(args[0])
		if err != nil {
			return err
		}
		return runSession(cmd.Context(), transfer.RoleResponder, code)
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
