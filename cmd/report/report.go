// Package report prints analytic views of stored ledgers.
package report

import (
	"fmt"

	"github.com/spf13/cobra"

	"finsight/backend/cmd/common"
	"finsight/backend/cmd/root"
)

var (
	month    string
	year     string
	spendPct float64
	savePct  float64
)

// Cmd represents the report command.
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Print category totals, the weekly split and deviation insights",
	RunE:  reportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Period month (name or number)")
	Cmd.Flags().StringVarP(&year, "year", "y", "", "Period year (four digits)")
	Cmd.Flags().Float64Var(&spendPct, "spend-pct", 0, "Target spending percentage for insights")
	Cmd.Flags().Float64Var(&savePct, "save-pct", 0, "Target saving percentage for insights")
	Cmd.MarkFlagsRequiredTogether("month", "year")
	Cmd.MarkFlagsRequiredTogether("spend-pct", "save-pct")
}

func reportFunc(cmd *cobra.Command, args []string) error {
	app, err := common.Build(cmd.Context(), root.Cfg, root.Log)
	if err != nil {
		return err
	}
	defer app.Close()

	if month != "" {
		totals, err := app.Pipeline.CategoryTotals(month, year)
		if err != nil {
			return err
		}
		fmt.Println("Category totals:")
		for _, spend := range totals {
			fmt.Printf("  %-22s %12.2f\n", spend.Category, spend.Amount)
		}

		split, err := app.Pipeline.WeeklySplit(month, year)
		if err != nil {
			return err
		}
		fmt.Printf("\nWeekly split for %s:\n", split.MonthName)
		for _, entry := range split.WeeklySpending {
			fmt.Printf("  week %d %-12s %12.2f\n", entry.Week, entry.Type, entry.Amount)
		}
	}

	if spendPct > 0 || savePct > 0 {
		insight, err := app.Pipeline.Insights(cmd.Context(), spendPct, savePct)
		if err != nil {
			return err
		}
		fmt.Printf("\nTotal spent:     %12.2f (expected %.2f, deviation %+.2f)\n",
			insight.TotalSpent, insight.ExpectedSpent, insight.DeviationSpent)
		fmt.Printf("Total saved:     %12.2f (expected %.2f, deviation %+.2f)\n",
			insight.TotalSaved, insight.ExpectedSaved, insight.DeviationSaved)
		fmt.Printf("Top category:    %s\n", insight.MaxSpentCategory)
		for _, suggestion := range insight.Suggestions {
			fmt.Printf("  - %s\n", suggestion)
		}
		fmt.Printf("Recommendations: %s\n", insight.AIRecommendations)
	}

	return nil
}
