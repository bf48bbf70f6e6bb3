package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/ledger"
)

func summaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show total balance and the last seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := a.signedIn()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			accounts, err := a.ledger.Accounts(ctx, a.sess)
			if err != nil {
				return err
			}
			txs, err := a.ledger.Transactions(ctx, a.sess)
			if err != nil {
				return err
			}

			currency := countries.CurrencyFor(who.Country)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total balance: %s across %d account(s)\n\n", countries.FormatMoney(ledger.TotalBalance(accounts), currency), len(accounts))

			week := ledger.Weekly(txs, time.Now(), time.Local)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "DAY\tINCOME\tEXPENSE\t")
			for _, d := range week {
				fmt.Fprintf(tw, "%s\t%s\t%s\t\n", d.Label(), countries.FormatMoney(d.Income, currency), countries.FormatMoney(d.Expense, currency))
			}
			income, expense := week.Totals()
			fmt.Fprintf(tw, "Total\t%s\t%s\t\n", countries.FormatMoney(income, currency), countries.FormatMoney(expense, currency))
			return tw.Flush()
		},
	}
}
