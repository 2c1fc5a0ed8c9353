package main

import (
	"errors"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	timezone   string
	jsonOutput bool
	verbose    bool

	profile Profile
	core    *app
)

var rootCmd = &cobra.Command{
	Use:           "checkin",
	Short:         "Daily wellness check-in from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if profile, err = loadProfile(); err != nil {
			return fmt.Errorf("failed to read profile: %w", err)
		}
		if cmd.Flags().Changed("server") {
			profile.ServerURL = serverURL
		}
		if cmd.Flags().Changed("timezone") {
			profile.Timezone = timezone
		}
		if cmd.Annotations["offline"] == "true" {
			return nil
		}
		core, err = newApp(profile, verbose)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides the profile)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "IANA time zone for the countdown (overrides the profile)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	err := rootCmd.Execute()
	if core != nil {
		if perr := core.persistSession(); perr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save session: %v\n", perr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

func describeError(err error) string {
	var ne *pipeline.NetworkError
	switch {
	case errors.Is(err, pipeline.ErrAuthenticationExpired):
		return "your session has expired, run `checkin login`"
	case errors.As(err, &ne) && ne.Timeout():
		return "the server took too long to answer, please try again"
	case errors.As(err, &ne):
		return fmt.Sprintf("could not reach %s, please try again", profile.ServerURL)
	}
	var he *pipeline.HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return err.Error()
}
