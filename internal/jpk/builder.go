package jpk

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/model"
)

// Builder maps documents and a business profile to a Declaration.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	now func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the source of the generation timestamp.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder returns a Builder stamping declarations with the current time.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build assembles the declaration for period. Only documents issued within
// the period are included. A nil profile yields a GenerationError wrapping
// ErrMissingProfile.
func (b *Builder) Build(period model.FiscalPeriod, invoices, expenses []model.Document, profile *model.BusinessProfile) (*Declaration, error) {
	if profile == nil {
		return nil, &model.GenerationError{Err: model.ErrMissingProfile, Period: period.Key}
	}

	d := &Declaration{
		Header: Header{
			PeriodKey:   period.Key,
			Year:        period.Start.Year(),
			Month:       period.Start.Month(),
			Start:       period.Start,
			End:         period.End,
			GeneratedAt: b.now().UTC().Truncate(time.Second),
			Entity:      entityOf(*profile),
		},
	}

	d.Sales = records(period, invoices)
	d.Purchases = records(period, expenses)
	d.SalesSubtotals = subtotals(d.Sales)
	d.PurchaseSubtotals = subtotals(d.Purchases)
	d.Summary = summarize(d.Sales, d.Purchases)
	return d, nil
}

func entityOf(p model.BusinessProfile) Entity {
	return Entity{
		TaxID:         NormalizeTaxID(p.TaxID),
		Individual:    p.IsIndividual(),
		Name:          strings.TrimSpace(p.Name),
		FirstName:     strings.TrimSpace(p.FirstName),
		LastName:      strings.TrimSpace(p.LastName),
		BirthDate:     p.BirthDate,
		Email:         strings.TrimSpace(p.Email),
		TaxOfficeCode: strings.TrimSpace(p.TaxOfficeCode),
	}
}

// NormalizeTaxID strips separators and a leading "PL" country prefix.
func NormalizeTaxID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "PL")
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

func records(period model.FiscalPeriod, docs []model.Document) []Record {
	var in []model.Document
	for _, d := range docs {
		if period.Contains(d.IssueDate) {
			in = append(in, d)
		}
	}
	slices.SortStableFunc(in, func(a, b model.Document) int {
		if c := model.DateOf(a.IssueDate).Compare(model.DateOf(b.IssueDate)); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})

	out := make([]Record, 0, len(in))
	for i, d := range in {
		out = append(out, recordOf(i+1, d))
	}
	return out
}

func recordOf(ordinal int, d model.Document) Record {
	r := Record{
		Ordinal:      ordinal,
		DocumentID:   d.ID,
		Number:       d.Number,
		IssueDate:    model.DateOf(d.IssueDate),
		SaleDate:     model.DateOf(d.EffectiveSaleDate()),
		Counterparty: d.Counterparty,
		Currency:     d.Currency,
		ExchangeRate: d.Rate(),
	}

	byRate := calc.ByRate(d.Items)
	total := zeroTotals()
	for _, rate := range model.VatRates() {
		t, ok := byRate[rate]
		if !ok {
			continue
		}
		if !d.IsLocalCurrency() {
			t = t.Convert(d.Rate())
		}
		r.Brackets = append(r.Brackets, BracketAmount{Rate: rate, Net: t.Net, Vat: t.Vat})
		total = total.Add(model.Totals{Net: t.Net, Vat: t.Vat, Gross: t.Net.Add(t.Vat)})
	}
	r.Totals = total
	return r
}

func subtotals(rs []Record) []BracketAmount {
	sums := make(map[model.VatRate]BracketAmount)
	for _, r := range rs {
		for _, b := range r.Brackets {
			s, ok := sums[b.Rate]
			if !ok {
				s = BracketAmount{Rate: b.Rate, Net: decimal.Zero, Vat: decimal.Zero}
			}
			s.Net = s.Net.Add(b.Net)
			s.Vat = s.Vat.Add(b.Vat)
			sums[b.Rate] = s
		}
	}

	var out []BracketAmount
	for _, rate := range model.VatRates() {
		if s, ok := sums[rate]; ok {
			out = append(out, s)
		}
	}
	return out
}

func summarize(sales, purchases []Record) Summary {
	st, pt := zeroTotals(), zeroTotals()
	for _, r := range sales {
		st = st.Add(r.Totals)
	}
	all := st
	for _, r := range purchases {
		pt = pt.Add(r.Deductible())
		all = all.Add(r.Totals)
	}

	s := Summary{
		Net:         all.Net,
		Vat:         all.Vat,
		Gross:       all.Gross,
		SalesNet:    st.Net,
		SalesVat:    st.Vat,
		PurchaseNet: pt.Net,
		PurchaseVat: pt.Vat,
		VatDue:      decimal.Zero,
		VatSurplus:  decimal.Zero,
	}
	if diff := st.Vat.Sub(pt.Vat); diff.IsPositive() {
		s.VatDue = diff
	} else {
		s.VatSurplus = diff.Neg()
	}
	return s
}

func zeroTotals() model.Totals {
	return model.Totals{Net: decimal.Zero, Vat: decimal.Zero, Gross: decimal.Zero}
}
