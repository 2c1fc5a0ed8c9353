package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		history, err := core.wellness.History(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(history)
		}
		records := history.Records
		if len(records) == 0 {
			fmt.Println("No check-ins yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tMOOD\tSTREAK\tPOINTS\tFEEDBACK")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%d\t%d\t+%d\t%s\n",
				r.PerformedAt.In(core.loc).Format(time.DateOnly),
				r.Payload.Mood,
				r.RewardSummary.Streak,
				r.RewardSummary.PointsAwarded,
				r.Payload.Feedback,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nTotal points: %d\n", history.TotalPoints)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 0, "number of records (server default when 0)")
}
