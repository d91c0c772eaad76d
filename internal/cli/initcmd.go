package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberapp/ember-go/internal/auth"
	"github.com/emberapp/ember-go/internal/db"
)

// NewInitCommand creates the init command: run the session bootstrap and
// report the resulting identity.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Ensure an identity and profile row exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := auth.InitializeUser(cmd.Context())
			if err != nil {
				return err
			}
			if res.Status == auth.StatusNotConfigured {
				fmt.Println("not configured; nothing to do")
				return nil
			}
			if opts.Format == "json" {
				return printJSON(res.User)
			}
			fmt.Printf("signed in as %s (since %s)\n",
				res.User.ID, res.User.CreatedAt.Format("2006-01-02"))
			return nil
		},
	}
}

// NewAccountCommand creates the account command group.
func NewAccountCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the signed-in identity",
	}

	var email, password string
	upgrade := &cobra.Command{
		Use:   "upgrade",
		Short: "Link the anonymous identity to an email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireSession(cmd.Context())
			if err != nil {
				return err
			}
			user, err := auth.UpgradeToEmail(cmd.Context(), client, email, password)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(user)
			}
			fmt.Printf("account linked to %s\n", user.Email)
			return nil
		},
	}
	upgrade.Flags().StringVar(&email, "email", "", "email address")
	upgrade.Flags().StringVar(&password, "password", "", "password")
	_ = upgrade.MarkFlagRequired("email")
	_ = upgrade.MarkFlagRequired("password")

	signout := &cobra.Command{
		Use:   "signout",
		Short: "Discard the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.SignOut(); err != nil {
				return err
			}
			db.Reset()
			fmt.Println("signed out")
			return nil
		},
	}

	cmd.AddCommand(upgrade)
	cmd.AddCommand(signout)
	return cmd
}
