// Package config reads the fakturownik.yaml project file and the
// environment-driven runtime settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fakturownik/fakturownik/internal/model"
	"github.com/fakturownik/fakturownik/internal/periods"
)

// FileName is the project file at the root of a books directory.
const FileName = "fakturownik.yaml"

// Config represents the top-level fakturownik.yaml configuration.
type Config struct {
	Business  BusinessConfig  `yaml:"business"`
	Tax       TaxConfig       `yaml:"tax"`
	Currency  CurrencyConfig  `yaml:"currency"`
	Deadlines DeadlinesConfig `yaml:"deadlines"`
	Numbering NumberingConfig `yaml:"numbering"`
	Git       GitConfig       `yaml:"git"`
}

// BusinessConfig identifies the taxpayer.
type BusinessConfig struct {
	TaxID         string `yaml:"tax_id"`
	Name          string `yaml:"name"`
	LegalForm     string `yaml:"legal_form"` // individual or company
	FirstName     string `yaml:"first_name,omitempty"`
	LastName      string `yaml:"last_name,omitempty"`
	BirthDate     string `yaml:"birth_date,omitempty"` // YYYY-MM-DD
	Email         string `yaml:"email"`
	TaxOfficeCode string `yaml:"tax_office_code"`
	VatExempt     bool   `yaml:"vat_exempt"`
}

// TaxConfig selects the income tax regime.
type TaxConfig struct {
	Regime        string `yaml:"regime"`
	LumpSumRate   string `yaml:"lump_sum_rate,omitempty"`   // percent, e.g. "8.5"
	TaxCardAmount string `yaml:"tax_card_amount,omitempty"` // PLN per month
}

// CurrencyConfig controls exchange rate lookups.
type CurrencyConfig struct {
	ProviderURL  string `yaml:"provider_url"`
	Timeout      string `yaml:"timeout"` // Go duration
	LookbackDays int    `yaml:"lookback_days"`
}

// DeadlinesConfig places the monthly filing deadlines.
type DeadlinesConfig struct {
	Primary      string `yaml:"primary"` // income_tax or jpk
	IncomeTaxDay int    `yaml:"income_tax_day"`
	JPKDay       int    `yaml:"jpk_day"`
	DueSoonDays  *int   `yaml:"due_soon_days,omitempty"` // unset = 7
}

// NumberingConfig controls generated invoice numbers.
type NumberingConfig struct {
	Prefix string `yaml:"prefix"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a fakturownik.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(taxID, name string) *Config {
	dueSoon := 7
	return &Config{
		Business: BusinessConfig{
			TaxID:     taxID,
			Name:      name,
			LegalForm: string(model.LegalFormIndividual),
		},
		Tax: TaxConfig{
			Regime: string(model.RegimeFlat),
		},
		Currency: CurrencyConfig{
			ProviderURL:  "https://api.nbp.pl/api",
			Timeout:      "10s",
			LookbackDays: 7,
		},
		Deadlines: DeadlinesConfig{
			Primary:      string(model.DeadlineJPK),
			IncomeTaxDay: 20,
			JPKDay:       25,
			DueSoonDays:  &dueSoon,
		},
		Numbering: NumberingConfig{
			Prefix: "FV",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Fakturownik",
			AuthorEmail: "books@fakturownik.local",
		},
	}
}

// Profile converts the business and tax sections into a BusinessProfile.
func (c *Config) Profile() (model.BusinessProfile, error) {
	b := c.Business
	p := model.BusinessProfile{
		TaxID:         strings.TrimSpace(b.TaxID),
		Name:          strings.TrimSpace(b.Name),
		LegalForm:     model.LegalForm(strings.ToLower(strings.TrimSpace(b.LegalForm))),
		FirstName:     b.FirstName,
		LastName:      b.LastName,
		Email:         b.Email,
		TaxOfficeCode: b.TaxOfficeCode,
		TaxRegime:     model.TaxRegime(strings.ToUpper(strings.TrimSpace(c.Tax.Regime))),
		VatExempt:     b.VatExempt,
	}

	switch p.LegalForm {
	case model.LegalFormIndividual, model.LegalFormCompany:
	case "":
		p.LegalForm = model.LegalFormIndividual
	default:
		return model.BusinessProfile{}, fmt.Errorf("business.legal_form: unknown value %q", b.LegalForm)
	}

	switch p.TaxRegime {
	case model.RegimeProgressive, model.RegimeFlat, model.RegimeLumpSum, model.RegimeTaxCard:
	default:
		return model.BusinessProfile{}, &model.CalculationError{
			Err:     model.ErrUnsupportedRegime,
			Regime:  p.TaxRegime,
			Message: "tax.regime must be PROGRESSIVE, FLAT, LUMP_SUM or TAX_CARD",
		}
	}

	if b.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", b.BirthDate)
		if err != nil {
			return model.BusinessProfile{}, fmt.Errorf("business.birth_date: %w", err)
		}
		p.BirthDate = bd
	}

	var err error
	if p.LumpSumRate, err = optionalDecimal(c.Tax.LumpSumRate); err != nil {
		return model.BusinessProfile{}, fmt.Errorf("tax.lump_sum_rate: %w", err)
	}
	if p.TaxCardAmount, err = optionalDecimal(c.Tax.TaxCardAmount); err != nil {
		return model.BusinessProfile{}, fmt.Errorf("tax.tax_card_amount: %w", err)
	}
	return p, nil
}

// PeriodOptions returns the deadline settings for period aggregation.
// An explicit due_soon_days of 0 flags only the deadline day itself.
func (c *Config) PeriodOptions() periods.Options {
	o := periods.Options{
		IncomeTaxDay: c.Deadlines.IncomeTaxDay,
		JPKDay:       c.Deadlines.JPKDay,
		Primary:      model.DeadlineKind(c.Deadlines.Primary),
		DueSoonDays:  -1,
	}
	if c.Deadlines.DueSoonDays != nil {
		o.DueSoonDays = *c.Deadlines.DueSoonDays
	}
	return o
}

// RateTimeout parses currency.timeout, returning def when unset.
func (c *Config) RateTimeout(def time.Duration) (time.Duration, error) {
	if c.Currency.Timeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.Currency.Timeout)
	if err != nil {
		return 0, fmt.Errorf("currency.timeout: %w", err)
	}
	return d, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
