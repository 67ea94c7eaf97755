package cli

import (
	"github.com/spf13/cobra"
)

var pollOnceCmd = &cobra.Command{
	Use:   "run-poll-once",
	Short: "Run a single capture cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().PollOnce(cmd.Context())
	},
}
