package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := core.auth.Logout(cmd.Context()); err != nil {
			core.logger.Warn().Err(err).Msg("server logout failed, local session cleared")
		}
		fmt.Println("Logged out.")
		return nil
	},
}
