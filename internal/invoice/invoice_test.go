package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fakturownik/fakturownik/internal/currency"
	"github.com/fakturownik/fakturownik/internal/model"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, code string, issueDate time.Time) currency.Resolution {
	args := m.Called(ctx, code, issueDate)
	return args.Get(0).(currency.Resolution)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func plnDraft() Draft {
	return Draft{
		Kind:         model.KindIncome,
		Number:       "FV/2024/03/001",
		IssueDate:    date(2024, 3, 15),
		Counterparty: model.Party{Name: "ACME", TaxID: "1234563218"},
		Currency:     "pln",
		Items: []DraftItem{
			{Description: "consulting", Quantity: dec("2"), UnitPrice: dec("100.00"), VatRate: model.Vat23},
			{Description: "book", Quantity: dec("1"), UnitPrice: dec("40.00"), VatRate: model.Vat5},
		},
	}
}

func localResolution(day time.Time) currency.Resolution {
	return currency.Resolution{Rate: decimal.NewFromInt(1), RateDate: day, Source: model.RateSourceExternal}
}

func TestAssemble_LocalCurrency(t *testing.T) {
	r := new(mockResolver)
	r.On("Resolve", mock.Anything, "PLN", date(2024, 3, 15)).Return(localResolution(date(2024, 3, 15)))

	a := NewAssembler(r)
	a.newID = func() string { return "doc-1" }

	res, err := a.Assemble(context.Background(), plnDraft())
	require.NoError(t, err)
	doc := res.Document

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "PLN", doc.Currency)
	assert.Equal(t, model.RateSourceExternal, doc.ExchangeRateSource)
	assert.True(t, doc.ExchangeRate.Equal(decimal.NewFromInt(1)))
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "246.00", doc.Items[0].Gross.StringFixed(2))
	assert.Equal(t, "2.00", doc.Items[1].Vat.StringFixed(2))
	assert.Equal(t, "240.00", doc.Totals.Net.StringFixed(2))
	assert.Equal(t, "48.00", doc.Totals.Vat.StringFixed(2))
	assert.Equal(t, "288.00", doc.Totals.Gross.StringFixed(2))
	assert.Empty(t, res.Warnings)
	r.AssertExpectations(t)
}

func TestAssemble_FallbackWarning(t *testing.T) {
	warn := &model.ExternalServiceError{Op: "nbp rate EUR", Err: errors.New("connection refused")}
	r := new(mockResolver)
	r.On("Resolve", mock.Anything, "EUR", date(2024, 3, 15)).Return(currency.Resolution{
		Rate: decimal.NewFromInt(1), RateDate: date(2024, 3, 14), Source: model.RateSourceManual, Warning: warn,
	})

	d := plnDraft()
	d.Currency = "EUR"
	res, err := NewAssembler(r).Assemble(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, model.RateSourceManual, res.Document.ExchangeRateSource)
	assert.Equal(t, date(2024, 3, 14), res.Document.ExchangeRateDate)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], model.ErrRateUnavailable)
}

func TestAssemble_ManualOverrideKept(t *testing.T) {
	r := new(mockResolver)
	sel, err := currency.Override("EUR", date(2024, 3, 15), dec("4.40"), time.Time{})
	require.NoError(t, err)

	d := plnDraft()
	d.Currency = "EUR"
	d.Rate = &sel

	res, err := NewAssembler(r).Assemble(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "4.4", res.Document.ExchangeRate.String())
	assert.Equal(t, model.RateSourceManual, res.Document.ExchangeRateSource)
	assert.True(t, res.Rate.Manual)
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)

	// LocalTotals use the manual rate: 240 * 4.40 = 1056.00.
	assert.Equal(t, "1056.00", res.Document.LocalTotals().Net.StringFixed(2))
}

func TestAssemble_ManualOverrideDroppedOnDateChange(t *testing.T) {
	r := new(mockResolver)
	r.On("Resolve", mock.Anything, "EUR", date(2024, 3, 20)).Return(currency.Resolution{
		Rate: dec("4.3012"), RateDate: date(2024, 3, 19), Source: model.RateSourceExternal,
	})
	sel, err := currency.Override("EUR", date(2024, 3, 15), dec("4.40"), time.Time{})
	require.NoError(t, err)

	d := plnDraft()
	d.Currency = "EUR"
	d.IssueDate = date(2024, 3, 20)
	d.Rate = &sel

	res, err := NewAssembler(r).Assemble(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, model.RateSourceExternal, res.Document.ExchangeRateSource)
	assert.False(t, res.Rate.Manual)
	r.AssertExpectations(t)
}

func TestAssemble_ExemptDocument(t *testing.T) {
	r := new(mockResolver)
	r.On("Resolve", mock.Anything, "PLN", mock.Anything).Return(localResolution(date(2024, 3, 15)))

	d := plnDraft()
	d.VatExempt = true
	d.VatExemptionReason = "art. 113 ust. 1"
	d.Items = []DraftItem{{Description: "lesson", Quantity: dec("1"), UnitPrice: dec("999.99"), VatRate: model.VatExempt}}

	res, err := NewAssembler(r).Assemble(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, res.Document.Totals.Vat.IsZero())
	assert.Equal(t, "999.99", res.Document.Totals.Gross.StringFixed(2))
}

func TestAssemble_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
		field  string
		target error
	}{
		{"unknown kind", func(d *Draft) { d.Kind = "refund" }, "kind", model.ErrInvalidDocument},
		{"no issue date", func(d *Draft) { d.IssueDate = time.Time{} }, "issue_date", model.ErrInvalidDocument},
		{"bad currency", func(d *Draft) { d.Currency = "EURO" }, "currency", model.ErrInvalidDocument},
		{"no items", func(d *Draft) { d.Items = nil }, "items", model.ErrInvalidDocument},
		{"exempt without reason", func(d *Draft) {
			d.VatExempt = true
			d.Items = []DraftItem{{Quantity: dec("1"), UnitPrice: dec("1"), VatRate: model.VatExempt}}
		}, "vat_exemption_reason", model.ErrInvalidDocument},
		{"exempt with taxed item", func(d *Draft) {
			d.VatExempt = true
			d.VatExemptionReason = "art. 113"
		}, "items[0].vat_rate", model.ErrInvalidDocument},
		{"negative quantity", func(d *Draft) { d.Items[0].Quantity = dec("-1") }, "quantity", model.ErrInvalidLineItem},
		{"unknown rate", func(d *Draft) { d.Items[1].VatRate = "7" }, "vat_rate", model.ErrInvalidVatRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := plnDraft()
			tt.mutate(&d)
			_, err := NewAssembler(new(mockResolver)).Assemble(context.Background(), d)
			require.ErrorIs(t, err, tt.target)

			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAssemble_Notifies(t *testing.T) {
	r := new(mockResolver)
	r.On("Resolve", mock.Anything, "PLN", mock.Anything).Return(localResolution(date(2024, 3, 15)))

	var got []Event
	rec := NotifierFunc(func(_ context.Context, e Event) { got = append(got, e) })
	a := NewAssembler(r, WithNotifier(Notifiers{rec, nil, rec}))

	d := plnDraft()
	d.ID = "fixed"
	_, err := a.Assemble(context.Background(), d)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, EventDocumentAssembled, got[0].Kind)
	assert.Equal(t, "fixed", got[0].DocumentID)
	assert.Equal(t, "288.00", got[0].Totals.Gross.StringFixed(2))
}

func TestAssemble_NoNotificationOnError(t *testing.T) {
	called := false
	a := NewAssembler(new(mockResolver), WithNotifier(NotifierFunc(func(context.Context, Event) { called = true })))
	d := plnDraft()
	d.Items = nil
	_, err := a.Assemble(context.Background(), d)
	require.Error(t, err)
	assert.False(t, called)
}
