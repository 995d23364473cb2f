package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/config"
	"github.com/fakturownik/fakturownik/internal/currency"
	"github.com/fakturownik/fakturownik/internal/gitops"
	"github.com/fakturownik/fakturownik/internal/ledger"
	"github.com/fakturownik/fakturownik/internal/logger"
)

const dateFormat = "2006-01-02"

// app carries state shared by the subcommands of one invocation.
type app struct {
	settings *config.Settings
	dir      string
}

func (a *app) root() (string, error) {
	abs, err := filepath.Abs(a.dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

func (a *app) loadConfig() (string, *config.Config, error) {
	root, err := a.root()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// rateService builds the NBP-backed rate service. Environment settings
// override the project file.
func (a *app) rateService(cfg *config.Config) (*currency.Service, error) {
	timeout, err := cfg.RateTimeout(10 * time.Second)
	if err != nil {
		return nil, err
	}
	if a.settings.Rates.Timeout > 0 {
		timeout = a.settings.Rates.Timeout
	}

	var opts []currency.NBPOption
	baseURL := cfg.Currency.ProviderURL
	if a.settings.Rates.BaseURL != "" {
		baseURL = a.settings.Rates.BaseURL
	}
	if baseURL != "" {
		opts = append(opts, currency.WithBaseURL(baseURL))
	}
	if cfg.Currency.LookbackDays > 0 {
		opts = append(opts, currency.WithLookbackDays(cfg.Currency.LookbackDays))
	}

	return currency.NewService(currency.NewNBPClient(timeout, opts...),
		currency.WithTimeout(timeout),
		currency.WithLogger(logger.WithComponent("currency")),
	), nil
}

func store(root string, cfg *config.Config) *ledger.Store {
	return ledger.NewStore(root, cfg.Numbering.Prefix)
}

func author(cfg *config.Config) gitops.Author {
	return gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
}

func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

func parseDecimal(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", flag, err)
	}
	return d, nil
}
