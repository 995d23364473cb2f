// Package taxcalc estimates income tax due under the supported regimes.
package taxcalc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/model"
)

var (
	flatRate = decimal.RequireFromString("0.19")
	hundred  = decimal.NewFromInt(100)

	monthsPerYear = decimal.NewFromInt(12)
)

// Bracket is one step of a progressive schedule. A zero UpTo means the
// bracket is unbounded.
type Bracket struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// Schedule is a progressive tax table with a reducing amount
// (kwota zmniejszająca podatek) subtracted from the bracket total.
type Schedule struct {
	Brackets       []Bracket
	ReducingAmount decimal.Decimal
}

// DefaultSchedule returns the skala podatkowa in force since 2022:
// 12% up to 120 000 PLN, 32% above, reduced by 3 600 PLN.
func DefaultSchedule() Schedule {
	return Schedule{
		Brackets: []Bracket{
			{UpTo: decimal.NewFromInt(120000), Rate: decimal.RequireFromString("0.12")},
			{Rate: decimal.RequireFromString("0.32")},
		},
		ReducingAmount: decimal.NewFromInt(3600),
	}
}

// Monthly returns the schedule scaled to a single month: every threshold
// and the reducing amount divided by 12.
func (s Schedule) Monthly() Schedule {
	out := Schedule{
		Brackets:       make([]Bracket, len(s.Brackets)),
		ReducingAmount: s.ReducingAmount.Div(monthsPerYear),
	}
	for i, b := range s.Brackets {
		out.Brackets[i] = Bracket{UpTo: b.UpTo.Div(monthsPerYear), Rate: b.Rate}
	}
	return out
}

// Tax applies the schedule to base. The result is floored at zero.
func (s Schedule) Tax(base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	total := decimal.Zero
	lower := decimal.Zero
	for _, b := range s.Brackets {
		upper := base
		if !b.UpTo.IsZero() && b.UpTo.LessThan(base) {
			upper = b.UpTo
		}
		if upper.GreaterThan(lower) {
			total = total.Add(upper.Sub(lower).Mul(b.Rate))
		}
		if b.UpTo.IsZero() || !b.UpTo.LessThan(base) {
			break
		}
		lower = b.UpTo
	}
	total = total.Sub(s.ReducingAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Settings carries the regime and its profile-level parameters.
type Settings struct {
	Regime        model.TaxRegime
	LumpSumRate   decimal.Decimal // percent
	TaxCardAmount decimal.Decimal
	Schedule      *Schedule // nil = DefaultSchedule
}

// SettingsFromProfile extracts tax settings from a business profile.
func SettingsFromProfile(p model.BusinessProfile) Settings {
	return Settings{
		Regime:        p.TaxRegime,
		LumpSumRate:   p.LumpSumRate,
		TaxCardAmount: p.TaxCardAmount,
	}
}

// Estimate returns the tax due on base, rounded half-up to the grosz.
// The result is never negative. TAX_CARD ignores base entirely.
func Estimate(base decimal.Decimal, s Settings) (decimal.Decimal, error) {
	var tax decimal.Decimal
	switch s.Regime {
	case model.RegimeFlat:
		tax = positive(base).Mul(flatRate)
	case model.RegimeLumpSum:
		if !s.LumpSumRate.IsPositive() || s.LumpSumRate.GreaterThan(hundred) {
			return decimal.Zero, &model.CalculationError{
				Err:     model.ErrMissingRegimeParameter,
				Regime:  s.Regime,
				Message: fmt.Sprintf("lump-sum rate %s%% must be in (0, 100]", s.LumpSumRate),
			}
		}
		tax = positive(base).Mul(s.LumpSumRate).Div(hundred)
	case model.RegimeProgressive:
		sched := DefaultSchedule()
		if s.Schedule != nil {
			sched = *s.Schedule
		}
		tax = sched.Tax(base)
	case model.RegimeTaxCard:
		if !s.TaxCardAmount.IsPositive() {
			return decimal.Zero, &model.CalculationError{
				Err:     model.ErrMissingRegimeParameter,
				Regime:  s.Regime,
				Message: "tax card amount is not configured",
			}
		}
		tax = s.TaxCardAmount
	default:
		return decimal.Zero, &model.CalculationError{
			Err:     model.ErrUnsupportedRegime,
			Regime:  s.Regime,
			Message: "expected PROGRESSIVE, FLAT, LUMP_SUM or TAX_CARD",
		}
	}
	return tax.Round(2), nil
}

// BaseFor returns the regime-specific taxable base for a period: revenue
// for LUMP_SUM, income minus expenses otherwise.
func BaseFor(regime model.TaxRegime, income, expenses decimal.Decimal) decimal.Decimal {
	if regime == model.RegimeLumpSum {
		return income
	}
	return income.Sub(expenses)
}

func positive(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}
