package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/identity"
)

func registerCmd(a *app) *cobra.Command {
	var p identity.Profile
	var password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an identity and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := secret(password, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, err := a.ids.Register(cmd.Context(), a.sess, p, pw).Await(cmd.Context())
			if err != nil {
				return err
			}
			score := identity.PasswordStrength(pw)
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Signed in as %s (password strength: %s)\n", id.Name, id.Email, identity.StrengthLabel(score))
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "full name")
	cmd.Flags().StringVar(&p.Email, "email", "", "email address")
	cmd.Flags().StringVar(&p.Country, "country", "US", "ISO country code")
	cmd.Flags().StringVar(&p.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := secret(password, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, err := a.ids.Login(cmd.Context(), a.sess, email, pw).Await(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", id.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ids.Logout(cmd.Context(), a.sess)
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := a.sess.Current()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			country := id.Country
			if c, ok := countries.ByCode(id.Country); ok {
				country = c.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nCountry: %s\nPhone:   %s %s\nMember since %s\n",
				id.Name, id.Email, country, id.CountryCode, id.Phone, id.CreatedAt.Format("January 2006"))
			return nil
		},
	}
}
