package fiobank

import (
	"errors"
	"fmt"
)

// The pipeline distinguishes four failure families. All of them are fatal:
// this is a batch validation pipeline over trusted-but-unpredictable exports,
// and correctness requires loud, specific failure rather than silent coercion.
var (
	// ErrStructural marks malformed input: missing fields, mixed account
	// numbers, non-contiguous statement periods.
	ErrStructural = errors.New("structural error")

	// ErrUnrecognizedTransaction marks a raw record no classification rule
	// matched — an unhandled statement variant, not a runtime condition.
	ErrUnrecognizedTransaction = errors.New("unrecognized transaction")

	// ErrInvariant marks a record that matched a rule but violated the
	// rule's preconditions.
	ErrInvariant = errors.New("invariant violation")

	// ErrReconciliation marks a computed gross or net value differing from
	// the stated one beyond tolerance.
	ErrReconciliation = errors.New("arithmetic reconciliation failure")

	// ErrPositionNotFound is returned when a corporate-action leg refers to
	// a symbol the portfolio holds no position for.
	ErrPositionNotFound = errors.New("position not found")
)

func structuralErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}

func invariantErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func reconcileErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReconciliation, fmt.Sprintf(format, args...))
}
