package ledger

import (
	"fmt"
	"time"

	"github.com/fakturownik/fakturownik/internal/calc"
	"github.com/fakturownik/fakturownik/internal/model"
)

// Rule identifies a ledger consistency rule.
type Rule int

const (
	RuleItemValues     Rule = iota + 1 // item values match ComputeItem
	RuleTotals                         // document totals equal the item sum
	RuleMonth                          // issue date within the file's month
	RuleUnique                         // document IDs and income numbers are unique
	RuleExempt                         // exempt documents carry exempt items and a reason
	RuleRequiredFields                 // kind, number, counterparty, currency, rate
)

// Violation describes a single broken rule.
type Violation struct {
	Rule        Rule
	DocumentID  string
	Description string
}

func (v Violation) Error() string {
	return fmt.Sprintf("rule %d [%s]: %s", v.Rule, v.DocumentID, v.Description)
}

// ValidateDocuments checks every document of one month's file.
func ValidateDocuments(docs []model.Document, year int, month time.Month) []Violation {
	var out []Violation
	add := func(r Rule, id, format string, args ...any) {
		out = append(out, Violation{Rule: r, DocumentID: id, Description: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]bool)
	numbers := make(map[string]bool)
	for _, d := range docs {
		if !d.Kind.Valid() {
			add(RuleRequiredFields, d.ID, "unknown kind %q", d.Kind)
		}
		if d.ID == "" {
			add(RuleRequiredFields, d.Number, "missing document ID")
		}
		if d.Number == "" {
			add(RuleRequiredFields, d.ID, "missing document number")
		}
		if d.Counterparty.Name == "" {
			add(RuleRequiredFields, d.ID, "missing counterparty name")
		}
		if d.Currency == "" {
			add(RuleRequiredFields, d.ID, "missing currency")
		}
		if !d.IsLocalCurrency() && !d.ExchangeRate.IsPositive() {
			add(RuleRequiredFields, d.ID, "foreign currency %s without a positive exchange rate", d.Currency)
		}
		if len(d.Items) == 0 {
			add(RuleRequiredFields, d.ID, "document has no items")
		}

		if ids[d.ID] {
			add(RuleUnique, d.ID, "duplicate document ID")
		}
		ids[d.ID] = true
		if d.Kind == model.KindIncome && d.Number != "" {
			if numbers[d.Number] {
				add(RuleUnique, d.ID, "duplicate invoice number %s", d.Number)
			}
			numbers[d.Number] = true
		}

		if d.IssueDate.Year() != year || d.IssueDate.Month() != month {
			add(RuleMonth, d.ID, "issue date %s not in %04d-%02d", d.IssueDate.Format(dateFormat), year, int(month))
		}

		if d.VatExempt && d.VatExemptionReason == "" {
			add(RuleExempt, d.ID, "exempt document without an exemption reason")
		}

		for i, it := range d.Items {
			want, err := calc.ComputeItem(it.Quantity, it.UnitPrice, it.VatRate)
			if err != nil {
				add(RuleItemValues, d.ID, "item %d: %v", i+1, err)
				continue
			}
			if !want.Net.Equal(it.Net) || !want.Vat.Equal(it.Vat) || !want.Gross.Equal(it.Gross) {
				add(RuleItemValues, d.ID, "item %d: stored %s/%s/%s, computed %s/%s/%s", i+1,
					it.Net.StringFixed(2), it.Vat.StringFixed(2), it.Gross.StringFixed(2),
					want.Net.StringFixed(2), want.Vat.StringFixed(2), want.Gross.StringFixed(2))
			}
			if d.VatExempt && !it.VatRate.IsExempt() {
				add(RuleExempt, d.ID, "item %d has rate %s on an exempt document", i+1, it.VatRate)
			}
		}

		if sum := calc.Aggregate(d.Items); !equalTotals(sum, d.Totals) {
			add(RuleTotals, d.ID, "totals %s/%s/%s differ from item sum %s/%s/%s",
				d.Totals.Net.StringFixed(2), d.Totals.Vat.StringFixed(2), d.Totals.Gross.StringFixed(2),
				sum.Net.StringFixed(2), sum.Vat.StringFixed(2), sum.Gross.StringFixed(2))
		}
	}
	return out
}

func equalTotals(a, b model.Totals) bool {
	return a.Net.Equal(b.Net) && a.Vat.Equal(b.Vat) && a.Gross.Equal(b.Gross)
}
