// Package invoice turns user drafts into fully computed documents.
package invoice

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/currency"
	"github.com/fakturownik/fakturownik/internal/model"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// DraftItem is a line item as entered, before values are computed.
type DraftItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	VatRate     model.VatRate
}

// Draft is an unvalidated document. Rate carries the selection the editor
// currently shows; a manual selection survives reassembly as long as the
// currency and issue date stay the same.
type Draft struct {
	ID                 string
	Kind               model.DocumentKind
	Number             string
	IssueDate          time.Time
	SaleDate           time.Time
	Counterparty       model.Party
	Currency           string
	Rate               *currency.Selection
	VatExempt          bool
	VatExemptionReason string
	Items              []DraftItem
}

// Result is an assembled document with the rate it was priced at.
// Warnings are recoverable problems, such as a rate lookup fallback.
type Result struct {
	Document model.Document
	Rate     currency.Selection
	Warnings []error
}

// Assembler computes item values and totals and attaches the exchange rate.
type Assembler struct {
	rates    currency.Resolver
	notifier Notifier
	log      zerolog.Logger
	newID    func() string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithNotifier registers n to receive EventDocumentAssembled.
func WithNotifier(n Notifier) Option {
	return func(a *Assembler) { a.notifier = n }
}

// WithLogger sets the assembler's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

// NewAssembler returns an Assembler resolving foreign rates through rates.
func NewAssembler(rates currency.Resolver, opts ...Option) *Assembler {
	a := &Assembler{
		rates: rates,
		log:   zerolog.Nop(),
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assemble validates d and returns the computed document. Validation
// failures are returned as *model.ValidationError; rate lookup failures
// never fail assembly and are reported in Result.Warnings instead.
func (a *Assembler) Assemble(ctx context.Context, d Draft) (Result, error) {
	code := strings.ToUpper(strings.TrimSpace(d.Currency))
	if code == "" {
		code = model.LocalCurrency
	}
	if err := validateDraft(d, code); err != nil {
		return Result{}, err
	}

	items := make([]model.LineItem, 0, len(d.Items))
	for i, di := range d.Items {
		li, err := calc.ComputeLineItem(model.LineItem{
			Description: strings.TrimSpace(di.Description),
			Quantity:    di.Quantity,
			UnitPrice:   di.UnitPrice,
			VatRate:     di.VatRate,
		})
		if err != nil {
			return Result{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, li)
	}

	sel := currency.Refresh(ctx, a.rates, d.Rate, code, d.IssueDate)

	doc := model.Document{
		ID:                 d.ID,
		Kind:               d.Kind,
		Number:             strings.TrimSpace(d.Number),
		IssueDate:          model.DateOf(d.IssueDate),
		Counterparty:       d.Counterparty,
		Currency:           code,
		ExchangeRate:       sel.Rate,
		ExchangeRateDate:   sel.RateDate,
		ExchangeRateSource: sel.Source,
		VatExempt:          d.VatExempt,
		VatExemptionReason: strings.TrimSpace(d.VatExemptionReason),
		Items:              items,
		Totals:             calc.Aggregate(items),
	}
	if !d.SaleDate.IsZero() {
		doc.SaleDate = model.DateOf(d.SaleDate)
	}
	if doc.ID == "" {
		doc.ID = a.newID()
	}

	res := Result{Document: doc, Rate: sel}
	if sel.Warning != nil {
		res.Warnings = append(res.Warnings, sel.Warning)
	}

	a.log.Debug().
		Str("document_id", doc.ID).
		Str("number", doc.Number).
		Str("currency", code).
		Str("gross", doc.Totals.Gross.StringFixed(2)).
		Msg("document assembled")

	if a.notifier != nil {
		a.notifier.Notify(ctx, Event{
			Kind:       EventDocumentAssembled,
			DocumentID: doc.ID,
			Totals:     doc.Totals,
		})
	}
	return res, nil
}

func validateDraft(d Draft, code string) error {
	invalid := func(field string, value any, msg string) error {
		return model.NewValidationError(model.ErrInvalidDocument, field, value, msg)
	}

	if !d.Kind.Valid() {
		return invalid("kind", d.Kind, "must be income or expense")
	}
	if d.IssueDate.IsZero() {
		return invalid("issue_date", "", "is required")
	}
	if !currencyPattern.MatchString(code) {
		return invalid("currency", d.Currency, "must be a 3-letter ISO code")
	}
	if len(d.Items) == 0 {
		return invalid("items", 0, "at least one item is required")
	}
	if d.VatExempt {
		if strings.TrimSpace(d.VatExemptionReason) == "" {
			return invalid("vat_exemption_reason", "", "is required for a VAT-exempt document")
		}
		for i, it := range d.Items {
			if !it.VatRate.IsExempt() {
				return invalid(fmt.Sprintf("items[%d].vat_rate", i), it.VatRate, "a VAT-exempt document may only carry exempt items")
			}
		}
	}
	return nil
}
