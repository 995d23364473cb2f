// Package jpk builds JPK_V7M declarations from a period's documents and
// renders them to the XML format accepted by the tax authority.
package jpk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/model"
)

// Entity is the submitting taxpayer as it appears in Podmiot1.
type Entity struct {
	TaxID         string
	Individual    bool
	Name          string // full name, companies only
	FirstName     string
	LastName      string
	BirthDate     time.Time
	Email         string
	TaxOfficeCode string
}

// Header identifies the declaration.
type Header struct {
	PeriodKey   string
	Year        int
	Month       time.Month
	Start       time.Time
	End         time.Time
	GeneratedAt time.Time
	Entity      Entity
}

// BracketAmount is the PLN net and VAT booked under one VAT rate.
type BracketAmount struct {
	Rate model.VatRate
	Net  decimal.Decimal
	Vat  decimal.Decimal
}

// Record is one row of the sales or purchase ledger.
type Record struct {
	Ordinal      int // 1-based position within its ledger
	DocumentID   string
	Number       string
	IssueDate    time.Time
	SaleDate     time.Time
	Counterparty model.Party
	Currency     string
	ExchangeRate decimal.Decimal
	Brackets     []BracketAmount // fixed rate order, present rates only
	Totals       model.Totals    // PLN, sum of Brackets
}

// Bracket returns the amounts booked under rate.
func (r Record) Bracket(rate model.VatRate) (BracketAmount, bool) {
	for _, b := range r.Brackets {
		if b.Rate == rate {
			return b, true
		}
	}
	return BracketAmount{}, false
}

// Deductible returns the PLN totals of the taxed brackets. Exempt (zw)
// amounts carry no input VAT and are left out of K_42/K_43.
func (r Record) Deductible() model.Totals {
	net, vat := decimal.Zero, decimal.Zero
	for _, b := range r.Brackets {
		if b.Rate == model.VatExempt {
			continue
		}
		net = net.Add(b.Net)
		vat = vat.Add(b.Vat)
	}
	return model.Totals{Net: net, Vat: vat, Gross: net.Add(vat)}
}

// Summary holds the declaration-wide totals.
type Summary struct {
	Net         decimal.Decimal // sales and purchases together
	Vat         decimal.Decimal
	Gross       decimal.Decimal
	SalesNet    decimal.Decimal
	SalesVat    decimal.Decimal // podatek należny
	PurchaseNet decimal.Decimal // taxed purchases only
	PurchaseVat decimal.Decimal // podatek naliczony
	VatDue      decimal.Decimal // to be paid, never negative
	VatSurplus  decimal.Decimal // carried forward, never negative
}

// Declaration is a fully built JPK_V7M for one period.
type Declaration struct {
	Header            Header
	Sales             []Record
	Purchases         []Record
	SalesSubtotals    []BracketAmount
	PurchaseSubtotals []BracketAmount
	Summary           Summary
}

// SalesSubtotal returns the sales subtotal for rate, zero when absent.
func (d *Declaration) SalesSubtotal(rate model.VatRate) BracketAmount {
	return subtotal(d.SalesSubtotals, rate)
}

// PurchaseSubtotal returns the purchase subtotal for rate, zero when absent.
func (d *Declaration) PurchaseSubtotal(rate model.VatRate) BracketAmount {
	return subtotal(d.PurchaseSubtotals, rate)
}

// FileName returns the conventional name of the declaration file.
func (d *Declaration) FileName() string {
	return FileName(d.Header.Entity.TaxID, d.Header.PeriodKey)
}

// FileName returns "JPK_V7_{taxID}_{periodKey}.xml".
func FileName(taxID, periodKey string) string {
	return fmt.Sprintf("JPK_V7_%s_%s.xml", taxID, periodKey)
}

func subtotal(list []BracketAmount, rate model.VatRate) BracketAmount {
	for _, b := range list {
		if b.Rate == rate {
			return b
		}
	}
	return BracketAmount{Rate: rate, Net: decimal.Zero, Vat: decimal.Zero}
}
