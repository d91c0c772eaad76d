package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/insights"
)

// NewInsightsCommand creates the insights command (the Insights screen).
func NewInsightsCommand(opts *RootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Summarize recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			ov, err := insights.Summarize(cmd.Context(), client, days)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(ov)
			}

			fmt.Printf("last %d days: %d check-ins, %d events, %d reflections\n",
				ov.Days, ov.CheckIns, ov.Events, ov.Reflections)
			if len(ov.MoodBreakdown) > 0 {
				fmt.Println("moods:")
				for mood, cnt := range ov.MoodBreakdown {
					fmt.Printf("  %-12s %d\n", mood, cnt)
				}
			}
			if len(ov.EnergyTrend) > 0 {
				fmt.Println("energy:")
				for _, d := range ov.EnergyTrend {
					fmt.Printf("  %s  %.1f\n", d.Day, d.Energy)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")
	return cmd
}
