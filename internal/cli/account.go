package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/ledger"
)

func accountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(accountAddCmd(a), accountListCmd(a), accountUpdateCmd(a), accountDeleteCmd(a))
	return cmd
}

func accountAddCmd(a *app) *cobra.Command {
	var in ledger.AccountInput
	var kind, balance string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(balance)
			if err != nil {
				return err
			}
			in.Kind = ledger.AccountKind(kind)
			in.Balance = amount
			acct, err := a.ledger.AddAccount(cmd.Context(), a.sess, in).Await(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) %s\n", acct.Name, acct.ID, countries.FormatMoney(acct.Balance, acct.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "account name")
	cmd.Flags().StringVar(&kind, "kind", string(ledger.AccountChecking), "checking, savings, credit or investment")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "currency code (default: your country's)")
	cmd.Flags().StringVar(&in.Color, "color", "", "display color")
	cmd.Flags().StringVar(&in.LastFourDigits, "last4", "", "last four digits of the card or account number")
	cmd.Flags().BoolVar(&in.IsDefault, "default", false, "mark as default account")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func accountListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.signedIn(); err != nil {
				return err
			}
			accounts, err := a.ledger.Accounts(cmd.Context(), a.sess)
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts yet")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tKIND\tBALANCE\tCARD")
			for _, acct := range accounts {
				name := acct.Name
				if acct.IsDefault {
					name += " *"
				}
				card := ""
				if acct.LastFourDigits != "" {
					card = "•••• " + acct.LastFourDigits
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", acct.ID, name, acct.Kind, countries.FormatMoney(acct.Balance, acct.Currency), card)
			}
			return tw.Flush()
		},
	}
}

func accountUpdateCmd(a *app) *cobra.Command {
	var name, kind, balance, currency, color, last4 string
	var isDefault bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch ledger.AccountPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("kind") {
				k := ledger.AccountKind(kind)
				patch.Kind = &k
			}
			if flags.Changed("balance") {
				amount, err := parseAmount(balance)
				if err != nil {
					return err
				}
				patch.Balance = &amount
			}
			if flags.Changed("currency") {
				patch.Currency = &currency
			}
			if flags.Changed("color") {
				patch.Color = &color
			}
			if flags.Changed("last4") {
				patch.LastFourDigits = &last4
			}
			if flags.Changed("default") {
				patch.IsDefault = &isDefault
			}
			acct, err := a.ledger.UpdateAccount(cmd.Context(), a.sess, args[0], patch).Await(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s\n", acct.ID, acct.Name, countries.FormatMoney(acct.Balance, acct.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "account name")
	cmd.Flags().StringVar(&kind, "kind", "", "checking, savings, credit or investment")
	cmd.Flags().StringVar(&balance, "balance", "", "balance")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().StringVar(&last4, "last4", "", "last four digits")
	cmd.Flags().BoolVar(&isDefault, "default", false, "mark as default account")
	return cmd
}

func accountDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account and its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ledger.DeleteAccount(cmd.Context(), a.sess, args[0]).Await(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", args[0])
			return nil
		},
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %q", ledger.ErrInvalid, s)
	}
	return d, nil
}
