package types

import "errors"

// Sentinel errors for mini-crm operations. The HTTP layer maps these to
// status codes; the reconciliation workers record them on PendingRecords
// instead of surfacing them synchronously.
var (
	// ErrInvalidInput indicates a malformed request or missing required
	// fields at intake or segment creation. Maps to 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation indicates a payload failed the canonical entity's
	// structural contract during reconciliation. Recorded on the
	// PendingRecord, never surfaced synchronously.
	ErrValidation = errors.New("validation failed")

	// ErrCustomerNotFound indicates an Order references a Customer that does
	// not exist at commit time (referential integrity).
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrUnauthorizedTrigger indicates a scheduled job endpoint was called
	// without the correct bearer secret. Maps to 401.
	ErrUnauthorizedTrigger = errors.New("unauthorized job trigger")

	// ErrSegmentNotFound indicates a lookup for a segment that does not exist.
	ErrSegmentNotFound = errors.New("segment not found")
)
