package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// quotaCmd represents the quota command
var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show configured capability budgets",
	Long: `Quota displays every capability the pipeline would run under:
each reasoning tier's per-minute budget and each search provider's
monthly quota, as freshly registered from the current configuration.`,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAPABILITY\tUSED\tLIMIT\tREMAINING\tRESETS AT")
	for _, status := range a.ledger.Snapshot() {
		limit := fmt.Sprintf("%d", status.Limit)
		remaining := fmt.Sprintf("%d", status.Remaining)
		if status.Limit == 0 {
			limit = "unlimited"
			remaining = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			status.Capability, status.Used, limit, remaining,
			status.ResetsAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
