// Package ledger holds the pure financial state-transition rules of the
// application: installment scheduling, payment application, customer debt
// accounting and overdue reclassification. Nothing in this package touches
// the database or the network; the service layer owns persistence and calls
// in here inside its own transactions.
package ledger

import "errors"

// Every error below describes an expected, recoverable business condition.
// Callers match them with errors.Is and translate them into user-facing
// responses; none of them is fatal to the process.
var (
	// ErrInvalidInput is returned for missing or non-positive values and
	// references to entities that do not exist.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a sale line asks for more units
	// than the product currently has.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAlreadyPaid is returned when a payment is attempted against an
	// installment that is already settled. Double payment signals a caller
	// bug, so it is surfaced rather than silently ignored.
	ErrAlreadyPaid = errors.New("installment already paid")

	// ErrCascadeBlocked is returned when a delete is refused because
	// dependent financial obligations still exist.
	ErrCascadeBlocked = errors.New("delete blocked by dependent records")

	// ErrNotFound is returned when the target entity of a command is gone.
	ErrNotFound = errors.New("record not found")
)
