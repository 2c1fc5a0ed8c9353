package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/gate"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReward(r apimodel.RewardSummary) {
	if jsonOutput {
		return
	}
	fmt.Printf("+%d points, %d day streak, %d points total\n", r.PointsAwarded, r.Streak, r.TotalPoints)
}

// formatCountdown renders d as HH:MM:SS.
func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}

type statusView struct {
	State     string           `json:"state"`
	Countdown string           `json:"countdown,omitempty"`
	Record    *apimodel.Record `json:"record,omitempty"`
}

func printSnapshot(snap gate.Snapshot, loc *time.Location) error {
	if jsonOutput {
		v := statusView{State: snap.State.String(), Record: snap.Record}
		if snap.State == gate.StateCompleted {
			v.Countdown = formatCountdown(snap.Countdown)
		}
		return printJSON(v)
	}

	switch snap.State {
	case gate.StateEligible:
		fmt.Println("You have not checked in today. Run `checkin submit --mood N`.")
	case gate.StateCompleted:
		if snap.Record != nil {
			fmt.Printf("Checked in at %s (mood %d).\n", snap.Record.PerformedAt.In(loc).Format(time.Kitchen), snap.Record.Payload.Mood)
		} else {
			fmt.Println("Already checked in today.")
		}
		fmt.Printf("Next check-in in %s.\n", formatCountdown(snap.Countdown))
	default:
		fmt.Printf("Status: %s\n", snap.State)
	}
	return nil
}
