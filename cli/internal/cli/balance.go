package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/pkg/studio/api"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account's credit balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStudio(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		record, err := st.CreditBalance(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		renderBalance(appUI, record)
		return nil
	},
}

func renderBalance(u *ui.UI, record api.CreditBalance) {
	u.Info("Credits: %s", ui.Cyan(fmt.Sprintf("%d", record.Balance)))
	if record.MonthlyQuota > 0 {
		u.Info("Monthly quota: %d", record.MonthlyQuota)
	}
	if record.SubscriptionStatus != "" {
		u.Info("Subscription: %s", subscriptionColor(record.SubscriptionStatus))
	}
	if record.RenewalDate != nil {
		u.Info("Renews: %s", record.RenewalDate.Format("2006-01-02"))
	}
}

func subscriptionColor(status api.SubscriptionStatus) string {
	switch status {
	case api.SubscriptionActive, api.SubscriptionTrialing:
		return ui.Green(string(status))
	case api.SubscriptionPastDue:
		return ui.Yellow(string(status))
	default:
		return ui.Red(string(status))
	}
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
