// Package periods buckets documents into monthly fiscal periods and tracks
// their filing deadlines.
package periods

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/id"
	"github.com/fakturownik/fakturownik/internal/model"
	"github.com/fakturownik/fakturownik/internal/taxcalc"
)

// Options controls deadline placement and status thresholds.
type Options struct {
	IncomeTaxDay int                // day of the following month, PIT/ZUS
	JPKDay       int                // day of the following month, JPK_V7M
	Primary      model.DeadlineKind // copied into FiscalPeriod.DeadlineDate/Status
	DueSoonDays  int                // warning window in days; negative selects the default
}

// DefaultOptions returns the statutory deadlines: income tax and ZUS on
// the 20th, JPK on the 25th, with a 7 day warning window.
func DefaultOptions() Options {
	return Options{
		IncomeTaxDay: 20,
		JPKDay:       25,
		Primary:      model.DeadlineJPK,
		DueSoonDays:  7,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.IncomeTaxDay <= 0 {
		o.IncomeTaxDay = d.IncomeTaxDay
	}
	if o.JPKDay <= 0 {
		o.JPKDay = d.JPKDay
	}
	if o.Primary == "" {
		o.Primary = d.Primary
	}
	if o.DueSoonDays < 0 {
		o.DueSoonDays = d.DueSoonDays
	}
	return o
}

// Status classifies a deadline relative to asOf. Both dates are compared
// as calendar days.
func Status(deadline, asOf time.Time, dueSoonDays int) model.PeriodStatus {
	dl := model.DateOf(deadline)
	now := model.DateOf(asOf)
	if now.After(dl) {
		return model.StatusOverdue
	}
	days := int(dl.Sub(now).Hours() / 24)
	if days <= dueSoonDays {
		return model.StatusDueSoon
	}
	return model.StatusNotDue
}

// DeadlineDate returns the given day of the month following the period
// starting at start. No weekend or holiday shifting is applied.
func DeadlineDate(start time.Time, day int) time.Time {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// BuildPeriods returns one period per calendar month, from the month of
// the earliest document through the month containing asOf, in
// chronological order. Documents dated after that month are ignored.
// PROGRESSIVE estimates use the monthly share of the annual schedule.
func BuildPeriods(docs []model.Document, profile model.BusinessProfile, asOf time.Time, opts Options) ([]model.FiscalPeriod, error) {
	opts = opts.withDefaults()
	settings := taxcalc.SettingsFromProfile(profile)
	monthly := taxcalc.DefaultSchedule().Monthly()
	settings.Schedule = &monthly

	last := monthStart(asOf)
	first := last
	for _, d := range docs {
		if d.IssueDate.IsZero() {
			continue
		}
		if m := monthStart(d.IssueDate); m.Before(first) {
			first = m
		}
	}

	type sums struct{ income, expenses decimal.Decimal }
	byKey := make(map[string]*sums)
	for _, d := range docs {
		if d.IssueDate.IsZero() || monthStart(d.IssueDate).After(last) {
			continue
		}
		key := id.PeriodKeyOf(d.IssueDate)
		s, ok := byKey[key]
		if !ok {
			s = &sums{income: decimal.Zero, expenses: decimal.Zero}
			byKey[key] = s
		}
		gross := d.LocalTotals().Gross
		switch d.Kind {
		case model.KindIncome:
			s.income = s.income.Add(gross)
		case model.KindExpense:
			s.expenses = s.expenses.Add(gross)
		default:
			return nil, model.NewValidationError(model.ErrInvalidDocument, "kind", d.Kind,
				fmt.Sprintf("document %s has unknown kind", d.Number))
		}
	}

	var out []model.FiscalPeriod
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := id.PeriodKeyOf(m)
		income, expenses := decimal.Zero, decimal.Zero
		if s, ok := byKey[key]; ok {
			income, expenses = s.income, s.expenses
		}

		tax, err := taxcalc.Estimate(taxcalc.BaseFor(settings.Regime, income, expenses), settings)
		if err != nil {
			return nil, fmt.Errorf("estimating tax for %s: %w", key, err)
		}

		p := model.FiscalPeriod{
			Key:           key,
			Start:         m,
			End:           m.AddDate(0, 1, -1),
			TotalIncome:   income.Round(2),
			TotalExpenses: expenses.Round(2),
			EstimatedTax:  tax,
		}
		p.Deadlines = []model.Deadline{
			newDeadline(model.DeadlineIncomeTax, DeadlineDate(m, opts.IncomeTaxDay), asOf, opts.DueSoonDays),
			newDeadline(model.DeadlineJPK, DeadlineDate(m, opts.JPKDay), asOf, opts.DueSoonDays),
		}
		primary, ok := p.Deadline(opts.Primary)
		if !ok {
			return nil, fmt.Errorf("unknown primary deadline %q", opts.Primary)
		}
		p.DeadlineDate = primary.Date
		p.Status = primary.Status
		out = append(out, p)
	}
	return out, nil
}

// Find returns the period with the given key.
func Find(ps []model.FiscalPeriod, key string) (model.FiscalPeriod, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p, true
		}
	}
	return model.FiscalPeriod{}, false
}

func newDeadline(kind model.DeadlineKind, date, asOf time.Time, dueSoon int) model.Deadline {
	return model.Deadline{Kind: kind, Date: date, Status: Status(date, asOf, dueSoon)}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
