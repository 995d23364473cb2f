package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LocalCurrency is the currency of the books and of the declaration.
const LocalCurrency = "PLN"

// DocumentKind separates sales invoices from purchase expenses.
type DocumentKind string

const (
	KindIncome  DocumentKind = "income"
	KindExpense DocumentKind = "expense"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// RateSource records where a document's exchange rate came from.
type RateSource string

const (
	RateSourceExternal RateSource = "EXTERNAL"
	RateSourceManual   RateSource = "MANUAL"
)

// Totals is a net/VAT/gross triple. Used both for a single line item
// and for a whole document.
type Totals struct {
	Net   decimal.Decimal
	Vat   decimal.Decimal
	Gross decimal.Decimal
}

// Add returns the component-wise sum.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Net:   t.Net.Add(o.Net),
		Vat:   t.Vat.Add(o.Vat),
		Gross: t.Gross.Add(o.Gross),
	}
}

// Convert multiplies net and VAT by rate and rounds each to 2 places.
// Gross is their sum, so gross == net + vat holds after conversion.
func (t Totals) Convert(rate decimal.Decimal) Totals {
	net := t.Net.Mul(rate).Round(2)
	vat := t.Vat.Mul(rate).Round(2)
	return Totals{Net: net, Vat: vat, Gross: net.Add(vat)}
}

// LineItem is a single priced position on a document.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VatRate     VatRate
	Net         decimal.Decimal
	Vat         decimal.Decimal
	Gross       decimal.Decimal
}

// Values returns the item's computed values as Totals.
func (li LineItem) Values() Totals {
	return Totals{Net: li.Net, Vat: li.Vat, Gross: li.Gross}
}

// Party identifies the other side of a document.
type Party struct {
	Name        string
	TaxID       string
	CountryCode string // ISO 3166 alpha-2, empty means PL
}

// Document is the shared shape of invoices and expenses.
type Document struct {
	ID                 string
	Kind               DocumentKind
	Number             string
	IssueDate          time.Time
	SaleDate           time.Time // zero = same as IssueDate
	Counterparty       Party
	Currency           string
	ExchangeRate       decimal.Decimal
	ExchangeRateDate   time.Time
	ExchangeRateSource RateSource
	VatExempt          bool
	VatExemptionReason string
	Items              []LineItem
	Totals             Totals
}

// IsLocalCurrency reports whether the document is denominated in PLN.
func (d Document) IsLocalCurrency() bool {
	return d.Currency == "" || strings.EqualFold(d.Currency, LocalCurrency)
}

// Rate returns the exchange rate, treating an unset rate on a PLN document as 1.
func (d Document) Rate() decimal.Decimal {
	if d.IsLocalCurrency() || d.ExchangeRate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d.ExchangeRate
}

// LocalTotals returns the document totals converted to PLN.
func (d Document) LocalTotals() Totals {
	if d.IsLocalCurrency() {
		return d.Totals
	}
	return d.Totals.Convert(d.Rate())
}

// EffectiveSaleDate returns SaleDate, falling back to IssueDate.
func (d Document) EffectiveSaleDate() time.Time {
	if d.SaleDate.IsZero() {
		return d.IssueDate
	}
	return d.SaleDate
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
