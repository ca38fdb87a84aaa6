package domain

import "fmt"

// ValidationError reports a ledger inconsistency. It is fatal for the
// affected portfolio run and carries enough context to locate the offending
// transactions.
type ValidationError struct {
	Code      string
	Operation Operation
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("ledger validation failed for %s (%s): %s", e.Code, e.Operation, e.Reason)
	}
	return fmt.Sprintf("ledger validation failed for %s: %s", e.Code, e.Reason)
}

// RateUnavailableError reports a missing exchange rate for a non-reference
// currency. There is no implicit fallback to 1.
type RateUnavailableError struct {
	Currency string
	Err      error
}

func (e *RateUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no exchange rate available for %s: %v", e.Currency, e.Err)
	}
	return fmt.Sprintf("no exchange rate available for %s", e.Currency)
}

func (e *RateUnavailableError) Unwrap() error { return e.Err }

// PriceUnavailableError reports a missing price for a symbol.
type PriceUnavailableError struct {
	Symbol string
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("no price available for %s", e.Symbol)
}
