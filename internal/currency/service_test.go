package currency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fakturownik/fakturownik/internal/model"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Rate(ctx context.Context, code string, day time.Time) (Quote, error) {
	args := m.Called(ctx, code, day)
	return args.Get(0).(Quote), args.Error(1)
}

type providerFunc func(ctx context.Context, code string, day time.Time) (Quote, error)

func (f providerFunc) Rate(ctx context.Context, code string, day time.Time) (Quote, error) {
	return f(ctx, code, day)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_LocalCurrency(t *testing.T) {
	p := new(mockProvider)
	svc := NewService(p)

	for _, day := range []time.Time{date(2024, 1, 1), date(2024, 3, 15), date(2030, 12, 31)} {
		res := svc.Resolve(context.Background(), "PLN", day)
		assert.True(t, res.Rate.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, day, res.RateDate)
		assert.Equal(t, model.RateSourceExternal, res.Source)
		assert.NoError(t, res.Warning)
	}
	res := svc.Resolve(context.Background(), "pln", date(2024, 3, 15))
	assert.True(t, res.Rate.Equal(decimal.NewFromInt(1)))

	p.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_PrecedingDay(t *testing.T) {
	p := new(mockProvider)
	p.On("Rate", mock.Anything, "EUR", date(2024, 3, 14)).
		Return(Quote{Rate: decimal.RequireFromString("4.3012"), PublishedDate: date(2024, 3, 14)}, nil).Once()

	svc := NewService(p)
	res := svc.Resolve(context.Background(), "EUR", time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC))

	assert.Equal(t, "4.3012", res.Rate.String())
	assert.Equal(t, date(2024, 3, 14), res.RateDate)
	assert.Equal(t, model.RateSourceExternal, res.Source)
	assert.NoError(t, res.Warning)
	p.AssertExpectations(t)
}

func TestResolve_PublishedEarlier(t *testing.T) {
	// Monday issue date: Sunday requested, Friday's rate published.
	p := new(mockProvider)
	p.On("Rate", mock.Anything, "USD", date(2024, 3, 17)).
		Return(Quote{Rate: decimal.RequireFromString("3.9512"), PublishedDate: date(2024, 3, 15)}, nil)

	res := NewService(p).Resolve(context.Background(), "usd", date(2024, 3, 18))
	assert.Equal(t, date(2024, 3, 15), res.RateDate)
	assert.Equal(t, model.RateSourceExternal, res.Source)
}

func TestResolve_Fallback(t *testing.T) {
	p := new(mockProvider)
	p.On("Rate", mock.Anything, "EUR", date(2024, 3, 14)).Return(Quote{}, errors.New("connection refused"))

	res := NewService(p).Resolve(context.Background(), "EUR", date(2024, 3, 15))

	assert.True(t, res.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, model.RateSourceManual, res.Source)
	assert.Equal(t, date(2024, 3, 14), res.RateDate)
	require.Error(t, res.Warning)
	assert.ErrorIs(t, res.Warning, model.ErrRateUnavailable)

	var ext *model.ExternalServiceError
	assert.ErrorAs(t, res.Warning, &ext)
}

func TestResolve_NilProviderFallsBack(t *testing.T) {
	res := NewService(nil).Resolve(context.Background(), "GBP", date(2024, 5, 2))
	assert.Equal(t, model.RateSourceManual, res.Source)
	assert.ErrorIs(t, res.Warning, ErrNoRatePublished)
}

func TestResolve_TimeoutFallsBack(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ string, _ time.Time) (Quote, error) {
		<-ctx.Done()
		return Quote{}, ctx.Err()
	})
	svc := NewService(slow, WithTimeout(20*time.Millisecond))

	start := time.Now()
	res := svc.Resolve(context.Background(), "EUR", date(2024, 3, 15))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, model.RateSourceManual, res.Source)
	assert.ErrorIs(t, res.Warning, context.DeadlineExceeded)
}

func TestSession_Memoizes(t *testing.T) {
	p := new(mockProvider)
	p.On("Rate", mock.Anything, "EUR", date(2024, 3, 14)).
		Return(Quote{Rate: decimal.RequireFromString("4.3012"), PublishedDate: date(2024, 3, 14)}, nil).Once()
	p.On("Rate", mock.Anything, "EUR", date(2024, 3, 19)).
		Return(Quote{Rate: decimal.RequireFromString("4.3100"), PublishedDate: date(2024, 3, 19)}, nil).Once()

	sess := NewService(p).NewSession()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := sess.Resolve(ctx, "eur", date(2024, 3, 15))
			assert.Equal(t, "4.3012", res.Rate.String())
		}()
	}
	wg.Wait()

	res := sess.Resolve(ctx, "EUR", date(2024, 3, 20))
	assert.Equal(t, "4.31", res.Rate.String())

	p.AssertNumberOfCalls(t, "Rate", 2)
}

func TestSession_CancelledCallerNotMemoized(t *testing.T) {
	calls := 0
	p := providerFunc(func(ctx context.Context, code string, day time.Time) (Quote, error) {
		calls++
		if err := ctx.Err(); err != nil {
			return Quote{}, err
		}
		return Quote{Rate: decimal.RequireFromString("4.3012"), PublishedDate: day}, nil
	})
	sess := NewService(p).NewSession()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	first := sess.Resolve(cancelled, "EUR", date(2024, 3, 15))
	assert.Equal(t, model.RateSourceManual, first.Source)
	assert.ErrorIs(t, first.Warning, context.Canceled)

	second := sess.Resolve(context.Background(), "EUR", date(2024, 3, 15))
	assert.Equal(t, "4.3012", second.Rate.String())
	assert.Equal(t, model.RateSourceExternal, second.Source)
	assert.NoError(t, second.Warning)

	third := sess.Resolve(context.Background(), "EUR", date(2024, 3, 15))
	assert.Equal(t, second, third)
	assert.Equal(t, 2, calls)
}

func TestSession_MemoizesProviderFallback(t *testing.T) {
	p := new(mockProvider)
	p.On("Rate", mock.Anything, "EUR", date(2024, 3, 14)).
		Return(Quote{}, errors.New("nbp down")).Once()
	sess := NewService(p).NewSession()

	first := sess.Resolve(context.Background(), "EUR", date(2024, 3, 15))
	second := sess.Resolve(context.Background(), "EUR", date(2024, 3, 15))
	assert.Equal(t, model.RateSourceManual, first.Source)
	assert.Equal(t, first, second)
	p.AssertNumberOfCalls(t, "Rate", 1)
}

func TestOverride(t *testing.T) {
	sel, err := Override("eur", date(2024, 3, 15), decimal.RequireFromString("4.50"), time.Time{})
	require.NoError(t, err)
	assert.True(t, sel.Manual)
	assert.Equal(t, "EUR", sel.Currency)
	assert.Equal(t, model.RateSourceManual, sel.Source)
	assert.Equal(t, date(2024, 3, 14), sel.RateDate)

	_, err = Override("EUR", date(2024, 3, 15), decimal.Zero, time.Time{})
	assert.ErrorIs(t, err, model.ErrInvalidDocument)
}

func TestRefresh_KeepsManualOverride(t *testing.T) {
	p := new(mockProvider)
	svc := NewService(p)

	manual, err := Override("EUR", date(2024, 3, 15), decimal.RequireFromString("4.50"), date(2024, 3, 14))
	require.NoError(t, err)

	got := Refresh(context.Background(), svc, &manual, "EUR", time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, manual, got)
	p.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_RefetchesWhenInputsChange(t *testing.T) {
	p := new(mockProvider)
	p.On("Rate", mock.Anything, "EUR", date(2024, 3, 19)).
		Return(Quote{Rate: decimal.RequireFromString("4.31"), PublishedDate: date(2024, 3, 19)}, nil)
	p.On("Rate", mock.Anything, "USD", date(2024, 3, 14)).
		Return(Quote{Rate: decimal.RequireFromString("3.95"), PublishedDate: date(2024, 3, 14)}, nil)
	svc := NewService(p)

	manual, err := Override("EUR", date(2024, 3, 15), decimal.RequireFromString("4.50"), time.Time{})
	require.NoError(t, err)

	dateChanged := Refresh(context.Background(), svc, &manual, "EUR", date(2024, 3, 20))
	assert.False(t, dateChanged.Manual)
	assert.Equal(t, "4.31", dateChanged.Rate.String())
	assert.Equal(t, model.RateSourceExternal, dateChanged.Source)

	currencyChanged := Refresh(context.Background(), svc, &manual, "USD", date(2024, 3, 15))
	assert.Equal(t, "3.95", currencyChanged.Rate.String())

	first := Refresh(context.Background(), svc, nil, "EUR", date(2024, 3, 20))
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, date(2024, 3, 20), first.IssueDate)
}
