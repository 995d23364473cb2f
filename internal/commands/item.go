package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/model"
)

func newItemCommand() *cobra.Command {
	var qty, price, vat string

	cmd := &cobra.Command{
		Use:   "item",
		Short: "Compute net, VAT and gross of one line item",
		Example: `  fakturownik item --qty 2 --price 100 --vat 23
  fakturownik item --qty 1.5 --price 80 --vat zw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := parseDecimal("qty", qty)
			if err != nil {
				return err
			}
			p, err := parseDecimal("price", price)
			if err != nil {
				return err
			}
			rate, err := model.ParseVatRate(vat)
			if err != nil {
				return err
			}
			v, err := calc.ComputeItem(q, p, rate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "net %s  vat %s  gross %s\n",
				v.Net.StringFixed(2), v.Vat.StringFixed(2), v.Gross.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&qty, "qty", "1", "quantity")
	cmd.Flags().StringVar(&price, "price", "", "unit price (required)")
	_ = cmd.MarkFlagRequired("price")
	cmd.Flags().StringVar(&vat, "vat", "23", "VAT rate: 23, 8, 5, 0 or zw")

	return cmd
}
