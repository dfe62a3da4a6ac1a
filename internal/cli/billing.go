package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newBillingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Plans, trials and subscription",
	}

	cmd.AddCommand(newBillingPlansCmd())
	cmd.AddCommand(newBillingCheckoutCmd())
	cmd.AddCommand(newBillingCancelCmd())

	return cmd
}

func newBillingPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List paid plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Billing().Plans(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(plans)
			}

			table := NewTable("ID", "NAME", "PRICE", "POSTS/MONTH", "TRIAL", "CURRENT")
			for _, p := range plans {
				limit := "unlimited"
				if p.MonthlyLimit != nil {
					limit = fmt.Sprintf("%d", *p.MonthlyLimit)
				}
				current := ""
				if p.IsCurrent {
					current = "*"
				}
				table.AddRow(
					p.ID,
					p.Name,
					fmt.Sprintf("%.2f %s/%s", p.Price, strings.ToUpper(p.Currency), p.Interval),
					limit,
					fmt.Sprintf("%dd", p.TrialDays),
					current,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newBillingCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <plan>",
		Short: "Start a trial of a paid plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := apiClient.Billing().Checkout(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to start checkout: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(session)
			}

			fmt.Fprintln(stdout, "Complete checkout in your browser:")
			fmt.Fprintln(stdout, session.URL)
			return nil
		},
	}
}

func newBillingCancelCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the subscription and restore trial-start content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer := promptInput("Content created during the trial will be removed. Continue? [y/N]: ")
				if !strings.EqualFold(answer, "y") {
					fmt.Fprintln(stdout, "Aborted")
					return nil
				}
			}

			if err := apiClient.Billing().Cancel(context.Background()); err != nil {
				return fmt.Errorf("failed to cancel subscription: %w", err)
			}

			fmt.Fprintln(stdout, "Subscription cancelled")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}
