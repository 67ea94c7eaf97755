package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gregor-nelson/spx/internal/calendar"
)

var eodCmd = &cobra.Command{
	Use:   "run-eod [date]",
	Short: "Consolidate a trading day and prune expired rows",
	Long:  "Consolidates intraday snapshots for the given date (YYYY-MM-DD, default today ET) into daily history and removes rows past retention. Safe to re-run.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tradeDate := calendar.DateOf(calendar.Now())
		if len(args) == 1 {
			parsed, err := time.ParseInLocation(time.DateOnly, args[0], calendar.Location())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", args[0], err)
			}
			tradeDate = parsed
		}

		return getApp().RunEOD(cmd.Context(), tradeDate)
	},
}
