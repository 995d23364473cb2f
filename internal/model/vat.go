package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VatRate is one of the legally fixed VAT brackets.
type VatRate string

const (
	Vat23     VatRate = "23"
	Vat8      VatRate = "8"
	Vat5      VatRate = "5"
	Vat0      VatRate = "0"
	VatExempt VatRate = "zw" // zwolniony: exempt, carries no VAT
)

// vatRates lists the brackets in declaration order.
var vatRates = []VatRate{Vat23, Vat8, Vat5, Vat0, VatExempt}

// VatRates returns all valid brackets, highest rate first, exempt last.
func VatRates() []VatRate {
	out := make([]VatRate, len(vatRates))
	copy(out, vatRates)
	return out
}

// ParseVatRate accepts "23", "23%", "zw", "ZW" or "exempt".
func ParseVatRate(s string) (VatRate, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "%")
	if v == "exempt" {
		v = string(VatExempt)
	}
	r := VatRate(v)
	if !r.Valid() {
		return "", NewValidationError(ErrInvalidVatRate, "vat_rate", s, "must be one of 23, 8, 5, 0, zw")
	}
	return r, nil
}

// Valid reports whether r is in the closed set of brackets.
func (r VatRate) Valid() bool {
	for _, v := range vatRates {
		if r == v {
			return true
		}
	}
	return false
}

// IsExempt reports whether r is the exempt sentinel.
func (r VatRate) IsExempt() bool { return r == VatExempt }

// Percent returns the nominal rate in percent. Exempt items carry 0.
func (r VatRate) Percent() decimal.Decimal {
	if r.IsExempt() || !r.Valid() {
		return decimal.Zero
	}
	return decimal.RequireFromString(string(r))
}

// Index returns the position of r in declaration order, or -1.
func (r VatRate) Index() int {
	for i, v := range vatRates {
		if r == v {
			return i
		}
	}
	return -1
}
