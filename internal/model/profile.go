package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxRegime is the statutory method used to compute income tax.
type TaxRegime string

const (
	RegimeProgressive TaxRegime = "PROGRESSIVE" // skala podatkowa
	RegimeFlat        TaxRegime = "FLAT"        // podatek liniowy
	RegimeLumpSum     TaxRegime = "LUMP_SUM"    // ryczałt od przychodów ewidencjonowanych
	RegimeTaxCard     TaxRegime = "TAX_CARD"    // karta podatkowa
)

// LegalForm distinguishes natural persons from other entities.
type LegalForm string

const (
	LegalFormIndividual LegalForm = "individual"
	LegalFormCompany    LegalForm = "company"
)

// BusinessProfile is the read-only description of the taxpayer.
type BusinessProfile struct {
	TaxID         string // NIP, 10 digits
	Name          string
	LegalForm     LegalForm
	FirstName     string
	LastName      string
	BirthDate     time.Time
	Email         string
	TaxOfficeCode string // kod urzędu skarbowego, 4 digits
	TaxRegime     TaxRegime
	LumpSumRate   decimal.Decimal // percent, only for LUMP_SUM
	TaxCardAmount decimal.Decimal // fixed monthly amount, only for TAX_CARD
	VatExempt     bool
}

// IsIndividual reports whether the taxpayer is a natural person.
func (p BusinessProfile) IsIndividual() bool {
	return p.LegalForm == LegalFormIndividual
}
