package cli

import (
	"github.com/spf13/cobra"
)

var runSchedulerCmd = &cobra.Command{
	Use:   "run-scheduler",
	Short: "Run the market-session capture service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RunScheduler(cmd.Context())
	},
}
