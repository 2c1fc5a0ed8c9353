package main

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/gate"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record today's check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		mood, _ := cmd.Flags().GetInt("mood")
		feedback, _ := cmd.Flags().GetString("feedback")

		snap, err := core.gate.QueryStatus(cmd.Context())
		if err != nil {
			return err
		}
		if snap.State == gate.StateCompleted {
			return printSnapshot(snap, core.loc)
		}

		res, err := core.gate.Submit(cmd.Context(), apimodel.CheckInPayload{Mood: mood, Feedback: feedback})
		if errors.Is(err, gate.ErrNotEligible) {
			return printSnapshot(core.gate.Snapshot(), core.loc)
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(res)
		}
		if res.Reconciled {
			fmt.Println("Already checked in today.")
			return nil
		}
		fmt.Println("Checked in. See you tomorrow!")
		return nil
	},
}

func init() {
	submitCmd.Flags().Int("mood", 0, "mood from 1 (low) to 5 (great)")
	submitCmd.Flags().String("feedback", "", "optional note")
	_ = submitCmd.MarkFlagRequired("mood")
}
