package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether today's check-in is done",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := core.gate.QueryStatus(cmd.Context())
		if err != nil {
			return err
		}
		return printSnapshot(snap, core.loc)
	},
}
