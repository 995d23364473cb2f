package currency

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/model"
)

// Resolution is the exchange rate chosen for a (currency, issue date) pair.
// Warning is set when the provider failed and the fallback rate was used.
type Resolution struct {
	Rate     decimal.Decimal
	RateDate time.Time
	Source   model.RateSource
	Warning  error
}

// Resolver is implemented by Service and Session.
type Resolver interface {
	Resolve(ctx context.Context, code string, issueDate time.Time) Resolution
}

// Service resolves rates through a Provider with a deterministic fallback.
type Service struct {
	provider Provider
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTimeout bounds a single provider lookup.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a Service. A nil provider makes every foreign lookup
// fall back.
func NewService(p Provider, opts ...Option) *Service {
	s := &Service{
		provider: p,
		timeout:  10 * time.Second,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Resolve returns the rate for code on issueDate. The local currency is
// always 1 without a lookup. Foreign currencies use the last rate published
// before the issue date; any provider failure yields rate 1 tagged MANUAL
// with Warning set. Resolve never fails.
func (s *Service) Resolve(ctx context.Context, code string, issueDate time.Time) Resolution {
	code = strings.ToUpper(strings.TrimSpace(code))
	day := model.DateOf(issueDate)
	if code == "" || code == model.LocalCurrency {
		return Resolution{Rate: decimal.NewFromInt(1), RateDate: day, Source: model.RateSourceExternal}
	}

	prev := day.AddDate(0, 0, -1)
	q, err := s.lookup(ctx, code, prev)
	if err != nil {
		warn := &model.ExternalServiceError{Op: "rate lookup " + code + " " + prev.Format(dateFormat), Err: err}
		s.log.Warn().Err(err).Str("currency", code).Time("rate_date", prev).Msg("exchange rate unavailable, using manual fallback")
		return Resolution{
			Rate:     decimal.NewFromInt(1),
			RateDate: prev,
			Source:   model.RateSourceManual,
			Warning:  warn,
		}
	}
	s.log.Debug().Str("currency", code).Str("rate", q.Rate.String()).Time("published", q.PublishedDate).Msg("exchange rate resolved")
	return Resolution{Rate: q.Rate, RateDate: model.DateOf(q.PublishedDate), Source: model.RateSourceExternal}
}

func (s *Service) lookup(ctx context.Context, code string, day time.Time) (Quote, error) {
	if s.provider == nil {
		return Quote{}, ErrNoRatePublished
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Rate(ctx, code, day)
}

// NewSession starts a memoizing session for one generation run.
func (s *Service) NewSession() *Session {
	return &Session{svc: s, entries: make(map[sessionKey]*sessionEntry)}
}

type sessionKey struct {
	code string
	day  time.Time
}

type sessionEntry struct {
	mu   sync.Mutex
	done bool
	res  Resolution
}

// Session memoizes resolutions per (currency, issue date) so a run never
// asks the provider twice for the same pair. A fallback caused by the
// caller's own cancelled context is not kept. Safe for concurrent use.
type Session struct {
	svc     *Service
	mu      sync.Mutex
	entries map[sessionKey]*sessionEntry
}

// Resolve implements Resolver.
func (s *Session) Resolve(ctx context.Context, code string, issueDate time.Time) Resolution {
	key := sessionKey{code: strings.ToUpper(strings.TrimSpace(code)), day: model.DateOf(issueDate)}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &sessionEntry{}
		s.entries[key] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return e.res
	}
	res := s.svc.Resolve(ctx, key.code, key.day)
	if res.Warning != nil && ctx.Err() != nil {
		return res
	}
	e.res, e.done = res, true
	return res
}
