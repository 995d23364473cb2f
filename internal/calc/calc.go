// Package calc computes line item values and document totals with
// statutory rounding (half-up to the grosz).
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to two decimal places. Amounts reaching the
// calculator are never negative, so Round's half-away-from-zero is half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeItem returns the net, VAT and gross values of a single line item.
func ComputeItem(quantity, unitPrice decimal.Decimal, rate model.VatRate) (model.Totals, error) {
	if quantity.IsNegative() {
		return model.Totals{}, model.NewValidationError(model.ErrInvalidLineItem, "quantity", quantity, "must not be negative")
	}
	if unitPrice.IsNegative() {
		return model.Totals{}, model.NewValidationError(model.ErrInvalidLineItem, "unit_price", unitPrice, "must not be negative")
	}
	if !rate.Valid() {
		return model.Totals{}, model.NewValidationError(model.ErrInvalidVatRate, "vat_rate", rate, "must be one of 23, 8, 5, 0, zw")
	}

	net := Round2(quantity.Mul(unitPrice))
	if rate.IsExempt() {
		return model.Totals{Net: net, Vat: decimal.Zero, Gross: net}, nil
	}
	vat := Round2(net.Mul(rate.Percent()).Div(hundred))
	return model.Totals{Net: net, Vat: vat, Gross: net.Add(vat)}, nil
}

// ComputeLineItem returns a copy of item with its values filled in.
func ComputeLineItem(item model.LineItem) (model.LineItem, error) {
	v, err := ComputeItem(item.Quantity, item.UnitPrice, item.VatRate)
	if err != nil {
		return model.LineItem{}, err
	}
	item.Net, item.Vat, item.Gross = v.Net, v.Vat, v.Gross
	return item, nil
}

// Aggregate sums the already computed values of items. Item values are
// never re-derived here, so document totals are the sum of rounded items.
func Aggregate(items []model.LineItem) model.Totals {
	total := model.Totals{Net: decimal.Zero, Vat: decimal.Zero, Gross: decimal.Zero}
	for _, it := range items {
		total = total.Add(it.Values())
	}
	return total
}

// ByRate sums item values per VAT bracket. The result is keyed by rate;
// use model.VatRates for a stable iteration order.
func ByRate(items []model.LineItem) map[model.VatRate]model.Totals {
	out := make(map[model.VatRate]model.Totals)
	for _, it := range items {
		out[it.VatRate] = out[it.VatRate].Add(it.Values())
	}
	return out
}
