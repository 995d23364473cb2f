// Package currency resolves historical reference exchange rates for
// foreign-currency documents.
package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a reference rate published by the provider.
type Quote struct {
	Rate          decimal.Decimal
	PublishedDate time.Time
}

// Provider looks up the last reference rate published on or before day.
type Provider interface {
	Rate(ctx context.Context, code string, day time.Time) (Quote, error)
}
