package model

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below wraps one of these so callers
// can branch with errors.Is.
var (
	ErrInvalidLineItem        = errors.New("invalid line item")
	ErrInvalidVatRate         = errors.New("invalid VAT rate")
	ErrInvalidDocument        = errors.New("invalid document")
	ErrRateUnavailable        = errors.New("exchange rate unavailable")
	ErrMissingProfile         = errors.New("missing business profile")
	ErrIncompleteDeclaration  = errors.New("incomplete declaration")
	ErrUnsupportedRegime      = errors.New("unsupported tax regime")
	ErrMissingRegimeParameter = errors.New("missing tax regime parameter")
)

// ValidationError reports bad input at the engine boundary.
type ValidationError struct {
	Err     error
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s (value: %v)", e.Err, e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a ValidationError.
func NewValidationError(err error, field string, value any, message string) *ValidationError {
	return &ValidationError{Err: err, Field: field, Value: value, Message: message}
}

// ExternalServiceError reports a failed call to an unreliable collaborator.
// It is surfaced as a warning, never returned as a fatal error.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() []error {
	return []error{ErrRateUnavailable, e.Err}
}

// GenerationError reports a declaration that cannot be produced for a period.
type GenerationError struct {
	Err    error
	Period string
	Field  string
}

func (e *GenerationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("generating declaration for %s: %v: %s", e.Period, e.Err, e.Field)
	}
	return fmt.Sprintf("generating declaration for %s: %v", e.Period, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// UserMessage returns an actionable message suitable for display.
func (e *GenerationError) UserMessage() string {
	switch {
	case errors.Is(e.Err, ErrMissingProfile):
		return "select a business profile before generating the declaration"
	case errors.Is(e.Err, ErrIncompleteDeclaration):
		return fmt.Sprintf("cannot generate the declaration for %s: fill in %s first", e.Period, e.Field)
	default:
		return fmt.Sprintf("cannot generate the declaration for %s", e.Period)
	}
}

// CalculationError reports an unsupported regime or a misconfigured one.
// It indicates a configuration bug rather than bad user input.
type CalculationError struct {
	Err     error
	Regime  TaxRegime
	Message string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("tax regime %q: %v: %s", e.Regime, e.Err, e.Message)
}

func (e *CalculationError) Unwrap() error { return e.Err }
