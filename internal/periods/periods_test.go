package periods

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturownik/fakturownik/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func doc(kind model.DocumentKind, issued time.Time, gross string) model.Document {
	return model.Document{
		Kind:      kind,
		Number:    "X/" + issued.Format("2006-01-02"),
		IssueDate: issued,
		Currency:  "PLN",
		Totals:    model.Totals{Net: dec(gross), Vat: decimal.Zero, Gross: dec(gross)},
	}
}

func flatProfile() model.BusinessProfile {
	return model.BusinessProfile{TaxID: "5260250274", TaxRegime: model.RegimeFlat}
}

func TestBuildPeriods_FlatRegimeMonth(t *testing.T) {
	docs := []model.Document{
		doc(model.KindIncome, date(2024, 2, 5), "1000.00"),
		doc(model.KindIncome, date(2024, 2, 29), "500.00"),
		doc(model.KindExpense, date(2024, 2, 10), "300.00"),
	}

	ps, err := BuildPeriods(docs, flatProfile(), date(2024, 2, 29), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ps, 1)

	p := ps[0]
	assert.Equal(t, "2024-02", p.Key)
	assert.Equal(t, date(2024, 2, 1), p.Start)
	assert.Equal(t, date(2024, 2, 29), p.End)
	assert.Equal(t, "1500.00", p.TotalIncome.StringFixed(2))
	assert.Equal(t, "300.00", p.TotalExpenses.StringFixed(2))
	assert.Equal(t, "228.00", p.EstimatedTax.StringFixed(2))
}

func TestBuildPeriods_RangeAndOrder(t *testing.T) {
	docs := []model.Document{
		doc(model.KindIncome, date(2024, 3, 2), "100"),
		doc(model.KindIncome, date(2023, 11, 20), "200"),
	}

	ps, err := BuildPeriods(docs, flatProfile(), date(2024, 4, 1), DefaultOptions())
	require.NoError(t, err)

	var keys []string
	for _, p := range ps {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02", "2024-03", "2024-04"}, keys)

	// Empty months are present with zero totals.
	assert.True(t, ps[1].TotalIncome.IsZero())
	assert.True(t, ps[1].EstimatedTax.IsZero())
	assert.Equal(t, "200.00", ps[0].TotalIncome.StringFixed(2))
}

func TestBuildPeriods_NoDocuments(t *testing.T) {
	ps, err := BuildPeriods(nil, flatProfile(), date(2024, 5, 14), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "2024-05", ps[0].Key)
}

func TestBuildPeriods_IgnoresFutureDocuments(t *testing.T) {
	docs := []model.Document{
		doc(model.KindIncome, date(2024, 1, 10), "100"),
		doc(model.KindIncome, date(2024, 6, 1), "900"),
	}
	ps, err := BuildPeriods(docs, flatProfile(), date(2024, 1, 31), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "100.00", ps[0].TotalIncome.StringFixed(2))
}

func TestBuildPeriods_ConvertsForeignCurrency(t *testing.T) {
	d := doc(model.KindIncome, date(2024, 3, 15), "100.00")
	d.Currency = "EUR"
	d.ExchangeRate = dec("4.3012")

	ps, err := BuildPeriods([]model.Document{d}, flatProfile(), date(2024, 3, 31), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "430.12", ps[0].TotalIncome.StringFixed(2))
}

func TestBuildPeriods_LumpSumUsesRevenue(t *testing.T) {
	profile := model.BusinessProfile{TaxRegime: model.RegimeLumpSum, LumpSumRate: dec("8.5")}
	docs := []model.Document{
		doc(model.KindIncome, date(2024, 2, 5), "1000.00"),
		doc(model.KindExpense, date(2024, 2, 6), "900.00"),
	}
	ps, err := BuildPeriods(docs, profile, date(2024, 2, 20), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "85.00", ps[0].EstimatedTax.StringFixed(2))
}

func TestBuildPeriods_RegimeErrorPropagates(t *testing.T) {
	profile := model.BusinessProfile{TaxRegime: model.RegimeLumpSum}
	_, err := BuildPeriods(nil, profile, date(2024, 2, 20), DefaultOptions())
	assert.ErrorIs(t, err, model.ErrMissingRegimeParameter)
}

func TestBuildPeriods_UnknownKind(t *testing.T) {
	d := doc("refund", date(2024, 2, 5), "10")
	_, err := BuildPeriods([]model.Document{d}, flatProfile(), date(2024, 2, 20), DefaultOptions())
	assert.ErrorIs(t, err, model.ErrInvalidDocument)
}

func TestBuildPeriods_Deadlines(t *testing.T) {
	ps, err := BuildPeriods(nil, flatProfile(), date(2024, 1, 10), DefaultOptions())
	require.NoError(t, err)
	p := ps[0]

	pit, ok := p.Deadline(model.DeadlineIncomeTax)
	require.True(t, ok)
	assert.Equal(t, date(2024, 2, 20), pit.Date)

	jpk, ok := p.Deadline(model.DeadlineJPK)
	require.True(t, ok)
	assert.Equal(t, date(2024, 2, 25), jpk.Date)

	assert.Equal(t, jpk.Date, p.DeadlineDate)
	assert.Equal(t, model.StatusNotDue, p.Status)

	opts := DefaultOptions()
	opts.Primary = model.DeadlineIncomeTax
	ps, err = BuildPeriods(nil, flatProfile(), date(2024, 1, 10), opts)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 20), ps[0].DeadlineDate)
}

func TestStatus_Boundaries(t *testing.T) {
	deadline := date(2024, 3, 25)
	tests := []struct {
		asOf time.Time
		want model.PeriodStatus
	}{
		{date(2024, 3, 17), model.StatusNotDue},  // 8 days before
		{date(2024, 3, 18), model.StatusDueSoon}, // 7 days before
		{date(2024, 3, 24), model.StatusDueSoon},
		{date(2024, 3, 25), model.StatusDueSoon}, // deadline day
		{date(2024, 3, 26), model.StatusOverdue},
		{time.Date(2024, 3, 25, 23, 59, 0, 0, time.UTC), model.StatusDueSoon},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(deadline, tt.asOf, 7), "asOf %s", tt.asOf)
	}
}

func TestDeadlineDate(t *testing.T) {
	assert.Equal(t, date(2025, 1, 25), DeadlineDate(date(2024, 12, 1), 25))
	assert.Equal(t, date(2024, 2, 29), DeadlineDate(date(2024, 1, 1), 31))
}

func TestFind(t *testing.T) {
	ps, err := BuildPeriods(nil, flatProfile(), date(2024, 5, 14), DefaultOptions())
	require.NoError(t, err)
	_, ok := Find(ps, "2024-05")
	assert.True(t, ok)
	_, ok = Find(ps, "2024-04")
	assert.False(t, ok)
}

func TestBuildPeriods_ProgressiveUsesMonthlySchedule(t *testing.T) {
	docs := []model.Document{
		doc(model.KindIncome, date(2024, 2, 5), "12000.00"),
		doc(model.KindExpense, date(2024, 2, 10), "2000.00"),
		doc(model.KindIncome, date(2024, 3, 5), "2500.00"),
	}
	profile := model.BusinessProfile{TaxID: "5260250274", TaxRegime: model.RegimeProgressive}

	ps, err := BuildPeriods(docs, profile, date(2024, 3, 31), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "900.00", ps[0].EstimatedTax.StringFixed(2)) // 10000 * 12% - 300
	assert.Equal(t, "0.00", ps[1].EstimatedTax.StringFixed(2))   // 2500 * 12% - 300
}

func TestBuildPeriods_ZeroDueSoonWindow(t *testing.T) {
	docs := []model.Document{doc(model.KindIncome, date(2024, 2, 5), "100")}

	opts := DefaultOptions()
	opts.DueSoonDays = 0
	ps, err := BuildPeriods(docs, flatProfile(), date(2024, 3, 24), opts)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotDue, ps[0].Status)

	ps, err = BuildPeriods(docs, flatProfile(), date(2024, 3, 25), opts)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDueSoon, ps[0].Status)

	opts.DueSoonDays = -1
	ps, err = BuildPeriods(docs, flatProfile(), date(2024, 3, 24), opts)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDueSoon, ps[0].Status)
}
