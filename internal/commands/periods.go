package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakturownik/fakturownik/internal/model"
	"github.com/fakturownik/fakturownik/internal/periods"
	"github.com/fakturownik/fakturownik/internal/report"
)

func newPeriodsCommand(a *app) *cobra.Command {
	var asOf, csvPath, xlsxPath string

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List monthly periods with totals, estimated tax and deadlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}
			day, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}
			if day.IsZero() {
				day = time.Now()
			}

			docs, err := store(root, cfg).ReadAll()
			if err != nil {
				return err
			}
			ps, err := periods.BuildPeriods(docs, profile, day, cfg.PeriodOptions())
			if err != nil {
				return err
			}

			if err := printPeriods(cmd.OutOrStdout(), ps); err != nil {
				return err
			}
			if csvPath != "" {
				if err := exportFile(csvPath, ps, report.WriteCSV); err != nil {
					return err
				}
			}
			if xlsxPath != "" {
				if err := exportFile(xlsxPath, ps, report.WriteXLSX); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the table to this CSV file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the table to this XLSX file")

	return cmd
}

func printPeriods(w io.Writer, ps []model.FiscalPeriod) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PERIOD\tINCOME\tEXPENSES\tTAX\tDEADLINE\tSTATUS\t")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Key,
			p.TotalIncome.StringFixed(2),
			p.TotalExpenses.StringFixed(2),
			p.EstimatedTax.StringFixed(2),
			p.DeadlineDate.Format(dateFormat),
			strings.ReplaceAll(string(p.Status), "_", " "),
		)
	}
	return tw.Flush()
}

func exportFile(path string, ps []model.FiscalPeriod, write func(io.Writer, []model.FiscalPeriod) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f, ps); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
