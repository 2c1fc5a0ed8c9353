package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("CHECKIN_PASSWORD")
		}

		in := bufio.NewReader(cmd.InOrStdin())
		var err error
		if email == "" {
			if email, err = prompt(in, "Email: "); err != nil {
				return err
			}
		}
		if password == "" {
			if password, err = prompt(in, "Password: "); err != nil {
				return err
			}
		}
		if email == "" || password == "" {
			return errors.New("email and password are required")
		}

		if _, err := core.auth.Login(cmd.Context(), email, password); err != nil {
			return err
		}
		fmt.Println("Logged in.")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (or CHECKIN_PASSWORD)")
}

func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
