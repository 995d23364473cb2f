package currency

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/model"
)

// Selection is the rate currently attached to a document being edited.
// Manual is set when the user typed the rate in.
type Selection struct {
	Currency  string
	IssueDate time.Time
	Resolution
	Manual bool
}

// Override records a user-supplied rate. It always takes precedence over
// automatic lookups for the same currency and issue date.
func Override(code string, issueDate time.Time, rate decimal.Decimal, rateDate time.Time) (Selection, error) {
	if !rate.IsPositive() {
		return Selection{}, model.NewValidationError(model.ErrInvalidDocument, "exchange_rate", rate, "must be greater than zero")
	}
	if rateDate.IsZero() {
		rateDate = model.DateOf(issueDate).AddDate(0, 0, -1)
	}
	return Selection{
		Currency:  strings.ToUpper(strings.TrimSpace(code)),
		IssueDate: model.DateOf(issueDate),
		Resolution: Resolution{
			Rate:     rate,
			RateDate: model.DateOf(rateDate),
			Source:   model.RateSourceManual,
		},
		Manual: true,
	}, nil
}

// Refresh re-resolves the rate after the currency or issue date changed.
// A manual selection for the same currency and day is returned untouched.
func Refresh(ctx context.Context, r Resolver, prev *Selection, code string, issueDate time.Time) Selection {
	code = strings.ToUpper(strings.TrimSpace(code))
	day := model.DateOf(issueDate)
	if prev != nil && prev.Manual && prev.Currency == code && prev.IssueDate.Equal(day) {
		return *prev
	}
	return Selection{
		Currency:   code,
		IssueDate:  day,
		Resolution: r.Resolve(ctx, code, day),
	}
}
