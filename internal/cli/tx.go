package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/ledger"
)

func txCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list transactions",
	}
	cmd.AddCommand(txAddCmd(a), txListCmd(a))
	return cmd
}

func txAddCmd(a *app) *cobra.Command {
	var in ledger.TransactionInput
	var amount, kind, category, date string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Post a transaction against an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			in.Amount = amt
			in.Kind = ledger.TransactionKind(kind)
			in.Category = ledger.Category(category)
			if date != "" {
				d, err := time.ParseInLocation(time.DateOnly, date, time.Local)
				if err != nil {
					return fmt.Errorf("%w: date %q, want YYYY-MM-DD", ledger.ErrInvalid, date)
				}
				in.Date = d
			}
			tx, err := a.ledger.AddTransaction(cmd.Context(), a.sess, in).Await(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s (%s)\n", tx.Kind, tx.Amount.StringFixed(2), tx.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.AccountID, "account", "", "account id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount; the sign follows --kind")
	cmd.Flags().StringVar(&kind, "kind", string(ledger.Expense), "income or expense")
	cmd.Flags().StringVar(&category, "category", string(ledger.CategoryOther), "one of: "+categoryList())
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default now)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func txListCmd(a *app) *cobra.Command {
	var accountID string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.signedIn(); err != nil {
				return err
			}
			ctx := cmd.Context()
			var (
				txs []ledger.Transaction
				err error
			)
			if accountID != "" {
				txs, err = a.ledger.TransactionsForAccount(ctx, a.sess, accountID)
			} else {
				txs, err = a.ledger.Transactions(ctx, a.sess)
			}
			if err != nil {
				return err
			}
			accounts, err := a.ledger.Accounts(ctx, a.sess)
			if err != nil {
				return err
			}
			currency := make(map[string]string, len(accounts))
			for _, acct := range accounts {
				currency[acct.ID] = acct.Currency
			}

			if len(txs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No transactions yet")
				return nil
			}
			if limit > 0 && len(txs) > limit {
				txs = txs[:limit]
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tAMOUNT")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					tx.Date.Local().Format(time.DateOnly), tx.Description, tx.Category, countries.FormatMoney(tx.Amount, currency[tx.AccountID]))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "only this account")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many")
	return cmd
}

func categoryList() string {
	names := make([]string, 0, len(ledger.Categories()))
	for _, c := range ledger.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
