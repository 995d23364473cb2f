// Package report exports fiscal period tables to CSV and XLSX.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/fakturownik/fakturownik/internal/model"
)

// SheetName is the worksheet holding the period table.
const SheetName = "Periods"

// Columns is the header row shared by both formats.
var Columns = []string{
	"period",
	"start",
	"end",
	"total_income",
	"total_expenses",
	"estimated_tax",
	"income_tax_deadline",
	"jpk_deadline",
	"deadline",
	"status",
}

const dateFormat = "2006-01-02"

// amountColumns are the zero-based indexes holding PLN amounts.
var amountColumns = []int{3, 4, 5}

// Rows renders periods as string rows, amounts with two decimals.
func Rows(ps []model.FiscalPeriod) [][]string {
	out := make([][]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, []string{
			p.Key,
			p.Start.Format(dateFormat),
			p.End.Format(dateFormat),
			p.TotalIncome.StringFixed(2),
			p.TotalExpenses.StringFixed(2),
			p.EstimatedTax.StringFixed(2),
			deadline(p, model.DeadlineIncomeTax),
			deadline(p, model.DeadlineJPK),
			p.DeadlineDate.Format(dateFormat),
			string(p.Status),
		})
	}
	return out
}

// WriteCSV writes the period table as CSV, header included.
func WriteCSV(w io.Writer, ps []model.FiscalPeriod) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(Rows(ps)); err != nil {
		return fmt.Errorf("writing periods: %w", err)
	}
	return nil
}

// WriteXLSX writes the period table as a single-sheet workbook. Amounts
// are stored as numbers with a two-decimal format.
func WriteXLSX(w io.Writer, ps []model.FiscalPeriod) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range Rows(ps) {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		p := ps[i]
		for j, amount := range []decimal.Decimal{p.TotalIncome, p.TotalExpenses, p.EstimatedTax} {
			cells[amountColumns[j]] = amount.InexactFloat64()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing period %s: %w", p.Key, err)
		}
	}

	if len(ps) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return fmt.Errorf("creating amount style: %w", err)
		}
		first, _ := excelize.CoordinatesToCellName(amountColumns[0]+1, 2)
		last, _ := excelize.CoordinatesToCellName(amountColumns[len(amountColumns)-1]+1, len(ps)+1)
		if err := f.SetCellStyle(SheetName, first, last, style); err != nil {
			return fmt.Errorf("styling amounts: %w", err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "J", 16); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func deadline(p model.FiscalPeriod, kind model.DeadlineKind) string {
	if d, ok := p.Deadline(kind); ok {
		return d.Date.Format(dateFormat)
	}
	return ""
}
