// Package apperrors defines the error taxonomy shared by the ledger
// pipeline and the HTTP layer.
package apperrors

import "fmt"

// NotFoundError indicates that no ledger exists for the requested period.
type NotFoundError struct {
	PeriodKey string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no ledger found for period %s", e.PeriodKey)
}

// ValidationError indicates bad caller input: a missing upload field, an
// unknown flow direction, percentages that do not sum to 100.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// UpstreamError indicates that an external service (document analysis,
// classification, advisory) returned a non-success outcome after any
// applicable retries.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseError indicates an unparseable numeric or date field. The
// pipeline recovers from these locally (coercion to zero, row drop);
// the type exists so the recovery sites can still log a structured cause.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s='%s': %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
