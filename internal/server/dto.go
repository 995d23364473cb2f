package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fakturownik/fakturownik/internal/currency"
	"github.com/fakturownik/fakturownik/internal/invoice"
	"github.com/fakturownik/fakturownik/internal/model"
)

const dateFormat = "2006-01-02"

// ItemRequest is the body of POST /items/compute and one line of a document.
type ItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VatRate     string          `json:"vat_rate" binding:"required"`
}

// ItemResponse carries the computed values of a line item.
type ItemResponse struct {
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	VatRate     string          `json:"vat_rate"`
	Net         decimal.Decimal `json:"net"`
	Vat         decimal.Decimal `json:"vat"`
	Gross       decimal.Decimal `json:"gross"`
}

// PartyDTO is the counterparty of a document.
type PartyDTO struct {
	Name        string `json:"name"`
	TaxID       string `json:"tax_id,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// DocumentRequest is an invoice or expense as submitted by a client.
// ExchangeRate, when set, is a manual rate and skips the lookup.
type DocumentRequest struct {
	ID                 string           `json:"id"`
	Kind               string           `json:"kind"`
	Number             string           `json:"number"`
	IssueDate          string           `json:"issue_date"`
	SaleDate           string           `json:"sale_date,omitempty"`
	Counterparty       PartyDTO         `json:"counterparty"`
	Currency           string           `json:"currency,omitempty"`
	ExchangeRate       *decimal.Decimal `json:"exchange_rate,omitempty"`
	ExchangeRateDate   string           `json:"exchange_rate_date,omitempty"`
	VatExempt          bool             `json:"vat_exempt,omitempty"`
	VatExemptionReason string           `json:"vat_exemption_reason,omitempty"`
	Items              []ItemRequest    `json:"items"`
}

// ProfileDTO is the business profile as submitted by a client.
type ProfileDTO struct {
	TaxID         string          `json:"tax_id"`
	Name          string          `json:"name"`
	LegalForm     string          `json:"legal_form"`
	FirstName     string          `json:"first_name,omitempty"`
	LastName      string          `json:"last_name,omitempty"`
	BirthDate     string          `json:"birth_date,omitempty"`
	Email         string          `json:"email"`
	TaxOfficeCode string          `json:"tax_office_code"`
	TaxRegime     string          `json:"tax_regime"`
	LumpSumRate   decimal.Decimal `json:"lump_sum_rate"`
	TaxCardAmount decimal.Decimal `json:"tax_card_amount"`
	VatExempt     bool            `json:"vat_exempt"`
}

// PeriodsRequest is the body of POST /periods.
type PeriodsRequest struct {
	Profile   ProfileDTO        `json:"profile"`
	AsOf      string            `json:"as_of,omitempty"` // default: today
	Documents []DocumentRequest `json:"documents"`
}

// JPKRequest is the body of POST /jpk. A null profile is reported as a
// missing profile.
type JPKRequest struct {
	Period    string            `json:"period" binding:"required"`
	Profile   *ProfileDTO       `json:"profile"`
	Documents []DocumentRequest `json:"documents"`
}

// DeadlineResponse is one filing deadline of a period.
type DeadlineResponse struct {
	Kind   string `json:"kind"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// PeriodResponse is a fiscal period summary.
type PeriodResponse struct {
	Key           string             `json:"key"`
	Start         string             `json:"start"`
	End           string             `json:"end"`
	TotalIncome   decimal.Decimal    `json:"total_income"`
	TotalExpenses decimal.Decimal    `json:"total_expenses"`
	EstimatedTax  decimal.Decimal    `json:"estimated_tax"`
	DeadlineDate  string             `json:"deadline_date"`
	Status        string             `json:"status"`
	Deadlines     []DeadlineResponse `json:"deadlines"`
}

// RateResponse is a resolved exchange rate.
type RateResponse struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	RateDate string          `json:"rate_date"`
	Source   string          `json:"source"`
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, model.NewValidationError(model.ErrInvalidDocument, field, s, "must be a YYYY-MM-DD date")
	}
	return t, nil
}

func (p ProfileDTO) toModel() (model.BusinessProfile, error) {
	bd, err := parseDate("profile.birth_date", p.BirthDate)
	if err != nil {
		return model.BusinessProfile{}, err
	}
	return model.BusinessProfile{
		TaxID:         p.TaxID,
		Name:          p.Name,
		LegalForm:     model.LegalForm(p.LegalForm),
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		BirthDate:     bd,
		Email:         p.Email,
		TaxOfficeCode: p.TaxOfficeCode,
		TaxRegime:     model.TaxRegime(p.TaxRegime),
		LumpSumRate:   p.LumpSumRate,
		TaxCardAmount: p.TaxCardAmount,
		VatExempt:     p.VatExempt,
	}, nil
}

func (d DocumentRequest) toDraft() (invoice.Draft, error) {
	issue, err := parseDate("issue_date", d.IssueDate)
	if err != nil {
		return invoice.Draft{}, err
	}
	sale, err := parseDate("sale_date", d.SaleDate)
	if err != nil {
		return invoice.Draft{}, err
	}

	draft := invoice.Draft{
		ID:        d.ID,
		Kind:      model.DocumentKind(d.Kind),
		Number:    d.Number,
		IssueDate: issue,
		SaleDate:  sale,
		Counterparty: model.Party{
			Name:        d.Counterparty.Name,
			TaxID:       d.Counterparty.TaxID,
			CountryCode: d.Counterparty.CountryCode,
		},
		Currency:           d.Currency,
		VatExempt:          d.VatExempt,
		VatExemptionReason: d.VatExemptionReason,
	}

	for _, it := range d.Items {
		rate, err := model.ParseVatRate(it.VatRate)
		if err != nil {
			return invoice.Draft{}, err
		}
		draft.Items = append(draft.Items, invoice.DraftItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			VatRate:     rate,
		})
	}

	if d.ExchangeRate != nil {
		rateDate, err := parseDate("exchange_rate_date", d.ExchangeRateDate)
		if err != nil {
			return invoice.Draft{}, err
		}
		sel, err := currency.Override(d.Currency, issue, *d.ExchangeRate, rateDate)
		if err != nil {
			return invoice.Draft{}, err
		}
		draft.Rate = &sel
	}
	return draft, nil
}

func itemResponse(li model.LineItem) ItemResponse {
	return ItemResponse{
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		VatRate:     string(li.VatRate),
		Net:         li.Net,
		Vat:         li.Vat,
		Gross:       li.Gross,
	}
}

func periodResponse(p model.FiscalPeriod) PeriodResponse {
	resp := PeriodResponse{
		Key:           p.Key,
		Start:         p.Start.Format(dateFormat),
		End:           p.End.Format(dateFormat),
		TotalIncome:   p.TotalIncome,
		TotalExpenses: p.TotalExpenses,
		EstimatedTax:  p.EstimatedTax,
		DeadlineDate:  p.DeadlineDate.Format(dateFormat),
		Status:        string(p.Status),
	}
	for _, d := range p.Deadlines {
		resp.Deadlines = append(resp.Deadlines, DeadlineResponse{
			Kind:   string(d.Kind),
			Date:   d.Date.Format(dateFormat),
			Status: string(d.Status),
		})
	}
	return resp
}
