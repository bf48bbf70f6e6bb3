package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/ledger"
)

func loanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Apply for and manage loans",
	}
	cmd.AddCommand(loanApplyCmd(a), loanListCmd(a), loanUpdateCmd(a), loanDeleteCmd(a))
	return cmd
}

func loanApplyCmd(a *app) *cobra.Command {
	var application ledger.LoanApplication
	var amount string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply for a loan and record the quoted terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			if application.Months <= 0 {
				return fmt.Errorf("%w: months must be positive", ledger.ErrInvalid)
			}
			application.Amount = amt
			loan, err := a.ledger.ApplyLoan(cmd.Context(), a.sess, ledger.PrepareLoan(application, time.Now(), nil)).Await(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s: %s over %s at %s%% APR, first payment %s (%s)\n",
				loan.Name, countries.FormatMoney(loan.Principal, loan.Currency), loan.DurationLabel,
				loan.APR.StringFixed(2), loan.NextPaymentDue.Format(time.DateOnly), loan.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&application.Name, "name", "", "loan name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to borrow")
	cmd.Flags().StringVar(&application.Purpose, "purpose", "", "what the loan is for")
	cmd.Flags().IntVar(&application.Months, "months", 12, "term in months")
	cmd.Flags().StringVar(&application.Currency, "currency", "", "currency code (default: your country's)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func loanListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.signedIn(); err != nil {
				return err
			}
			loans, err := a.ledger.Loans(cmd.Context(), a.sess)
			if err != nil {
				return err
			}
			if len(loans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No loans")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBALANCE\tAPR\tTERM\tNEXT PAYMENT")
			for _, l := range loans {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%s\t%s\n",
					l.ID, l.Name, countries.FormatMoney(l.Balance, l.Currency), l.APR.StringFixed(2),
					l.DurationLabel, l.NextPaymentDue.Format(time.DateOnly))
			}
			return tw.Flush()
		},
	}
}

func loanUpdateCmd(a *app) *cobra.Command {
	var name, purpose, balance string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch ledger.LoanPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("purpose") {
				patch.Purpose = &purpose
			}
			if cmd.Flags().Changed("balance") {
				amt, err := parseAmount(balance)
				if err != nil {
					return err
				}
				patch.Balance = &amt
			}
			loan, err := a.ledger.UpdateLoan(cmd.Context(), a.sess, args[0], patch).Await(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: balance %s\n", loan.Name, countries.FormatMoney(loan.Balance, loan.Currency))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "loan name")
	cmd.Flags().StringVar(&purpose, "purpose", "", "purpose")
	cmd.Flags().StringVar(&balance, "balance", "", "outstanding balance")
	return cmd
}

func loanDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ledger.DeleteLoan(cmd.Context(), a.sess, args[0]).Await(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted loan %s\n", args[0])
			return nil
		},
	}
}
