package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus is the filing status of a fiscal period relative to a date.
type PeriodStatus string

const (
	StatusNotDue  PeriodStatus = "NOT_DUE"
	StatusDueSoon PeriodStatus = "DUE_SOON"
	StatusOverdue PeriodStatus = "OVERDUE"
)

// DeadlineKind names one of the independently tracked monthly deadlines.
type DeadlineKind string

const (
	DeadlineIncomeTax DeadlineKind = "income_tax" // PIT advance and ZUS, 20th
	DeadlineJPK       DeadlineKind = "jpk"        // JPK_V7M, 25th
)

// Deadline is a single filing deadline of a period.
type Deadline struct {
	Kind   DeadlineKind
	Date   time.Time
	Status PeriodStatus
}

// FiscalPeriod is a calendar-month reporting window.
type FiscalPeriod struct {
	Key           string    // "2024-02"
	Start         time.Time // first day, inclusive
	End           time.Time // last day, inclusive
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	EstimatedTax  decimal.Decimal
	DeadlineDate  time.Time
	Status        PeriodStatus
	Deadlines     []Deadline
}

// Contains reports whether t falls on a day within [Start, End].
func (p FiscalPeriod) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Deadline returns the deadline of the given kind.
func (p FiscalPeriod) Deadline(kind DeadlineKind) (Deadline, bool) {
	for _, d := range p.Deadlines {
		if d.Kind == kind {
			return d, true
		}
	}
	return Deadline{}, false
}
