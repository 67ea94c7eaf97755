package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregor-nelson/spx/internal/app"
)

var (
	showLimit        int
	showUnackedOnly  bool
	showStats        bool
	showMoneyness    float64
	showDTE          int
	showMoneynessTol float64
	showDTETol       int
	showAckID        int64
	showAckNotes     string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent alerts, history stats, or comparable history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		if showMoneyness > 0 && showDTE <= 0 {
			return fmt.Errorf("--dte is required with --moneyness")
		}

		opts := app.ShowOptions{
			Limit:            showLimit,
			UnackedOnly:      showUnackedOnly,
			Stats:            showStats,
			SimilarMoneyness: showMoneyness,
			SimilarDTE:       showDTE,
			MoneynessTol:     showMoneynessTol,
			DTETol:           showDTETol,
			AckID:            showAckID,
			AckNotes:         showAckNotes,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of alerts to display")
	showCmd.Flags().BoolVar(&showUnackedOnly, "unacked", false, "Show unacknowledged alerts only")
	showCmd.Flags().BoolVar(&showStats, "stats", false, "Show daily history coverage instead of alerts")
	showCmd.Flags().Float64Var(&showMoneyness, "moneyness", 0, "Show daily history near this moneyness (requires --dte)")
	showCmd.Flags().IntVar(&showDTE, "dte", 0, "Days to expiration for the --moneyness query")
	showCmd.Flags().Float64Var(&showMoneynessTol, "moneyness-tol", 0.05, "Moneyness tolerance for the bucket query")
	showCmd.Flags().IntVar(&showDTETol, "dte-tol", 5, "DTE tolerance for the bucket query")
	showCmd.Flags().Int64Var(&showAckID, "ack", 0, "Acknowledge the alert with this ID and exit")
	showCmd.Flags().StringVar(&showAckNotes, "notes", "", "Notes stored with --ack")
}
