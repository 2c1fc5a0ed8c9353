package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jrsteele09/go-checkin/client/gate"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live countdown to the next check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		retry, _ := cmd.Flags().GetDuration("retry")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		snap, err := core.gate.QueryStatus(ctx)
		if err != nil {
			return err
		}
		render(snap)
		lastQuery := time.Now()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Println()
				return nil
			case <-ticker.C:
			}

			if snap.State == gate.StateError {
				if time.Since(lastQuery) < retry {
					continue
				}
				lastQuery = time.Now()
				snap, err = core.gate.QueryStatus(ctx)
			} else {
				snap, err = core.gate.TickCountdown(ctx)
			}
			if errors.Is(err, pipeline.ErrAuthenticationExpired) {
				fmt.Println()
				return err
			}
			if err != nil && ctx.Err() == nil {
				core.logger.Warn().Err(err).Msg("status query failed")
			}
			if ctx.Err() != nil {
				fmt.Println()
				return nil
			}
			render(snap)
		}
	},
}

func init() {
	watchCmd.Flags().Duration("interval", time.Second, "countdown refresh interval")
	watchCmd.Flags().Duration("retry", 30*time.Second, "wait before asking again after a failed query")
}

func render(snap gate.Snapshot) {
	switch snap.State {
	case gate.StateCompleted:
		fmt.Printf("\rDone for today. Next check-in in %s ", formatCountdown(snap.Countdown))
	case gate.StateEligible:
		fmt.Printf("\rCheck-in available now.                     ")
	case gate.StateError:
		fmt.Printf("\rCould not reach the server, retrying...     ")
	default:
		fmt.Printf("\rChecking...                                 ")
	}
}
