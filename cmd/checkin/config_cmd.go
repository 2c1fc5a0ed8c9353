package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or save the profile",
	Annotations: map[string]string{"offline": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		if t, _ := cmd.Flags().GetString("timeout"); t != "" {
			profile.Timeout = t
		}
		if _, err := profile.timeout(); err != nil {
			return err
		}
		if _, err := profile.location(); err != nil {
			return fmt.Errorf("invalid time zone %q: %w", profile.Timezone, err)
		}

		if save {
			if err := saveProfile(profile); err != nil {
				return err
			}
		}
		if jsonOutput {
			return printJSON(profile)
		}
		path, _ := profilePath()
		fmt.Printf("profile:   %s\nserver:    %s\ntimeout:   %s\ntimezone:  %s\n", path, profile.ServerURL, profile.Timeout, displayZone(profile.Timezone))
		return nil
	},
}

func init() {
	configCmd.Flags().Bool("save", false, "write --server, --timezone and --timeout to the profile")
	configCmd.Flags().String("timeout", "", "per-request timeout, e.g. 15s")
}

func displayZone(tz string) string {
	if tz == "" {
		return "system"
	}
	return tz
}
