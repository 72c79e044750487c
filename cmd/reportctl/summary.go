package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"retail-dashboard/internal/services"
)

func newSummaryCmd(a *app) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print transaction totals for the filtered view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			page, _, err := filters.page(cmd, a)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Role:\t%s\n", page.Viewer.Role)
			if page.Shop != nil {
				fmt.Fprintf(w, "Shop:\t%s\n", page.Shop.Name)
			}
			fmt.Fprintf(w, "Records:\t%d\n", len(page.Transactions))
			if page.View == services.ViewGlobal.String() && !page.Capabilities.Summary {
				fmt.Fprintf(w, "Summary:\tnot available for this role\n")
				return w.Flush()
			}
			s := page.Summary
			fmt.Fprintf(w, "Transactions:\t%d\n", s.TotalTransactions)
			fmt.Fprintf(w, "Quantity:\t%s\n", decimal.NewFromFloat(s.TotalQuantity).String())
			fmt.Fprintf(w, "Revenue:\t%s birr\n", decimal.NewFromFloat(s.TotalRevenue).StringFixed(2))
			return w.Flush()
		},
	}

	filters.register(cmd)
	return cmd
}
