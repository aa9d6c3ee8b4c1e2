package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumworks/govledger/pkg/auth"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := auth.NewCredentialStore()
		if err != nil {
			return err
		}

		fmt.Println("Opening your browser to sign in with Google...")
		creds, err := auth.BrowserLogin(cmd.Context(), clientID, clientSecret, store)
		if err != nil {
			return err
		}

		fmt.Printf("Signed in as %s.\n", creds.User.Email)
		return nil
	},
}

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove saved credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := auth.NewCredentialStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}
