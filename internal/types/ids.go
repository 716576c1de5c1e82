package types

import (
	"github.com/google/uuid"
)

// CustomerID identifies a canonical Customer.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type CustomerID string

// OrderID identifies a canonical Order.
type OrderID string

// SegmentID identifies a persisted Segment.
type SegmentID string

// PendingID identifies a staged PendingRecord.
type PendingID string

// NewCustomerID generates a UUIDv7 customer identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewCustomerID() CustomerID {
	return CustomerID(uuid.Must(uuid.NewV7()).String())
}

// NewOrderID generates a UUIDv7 order identifier.
func NewOrderID() OrderID {
	return OrderID(uuid.Must(uuid.NewV7()).String())
}

// NewSegmentID generates a UUIDv7 segment identifier.
func NewSegmentID() SegmentID {
	return SegmentID(uuid.Must(uuid.NewV7()).String())
}

// NewPendingID generates a UUIDv7 pending-record identifier.
func NewPendingID() PendingID {
	return PendingID(uuid.Must(uuid.NewV7()).String())
}

// ParseCustomerID validates and converts a string to CustomerID.
// Rejects malformed UUIDs so invalid references never enter the system;
// a well-formed but unknown ID is a referential-integrity failure handled
// later by the order worker.
func ParseCustomerID(s string) (CustomerID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return CustomerID(s), nil
}

// ParsePendingID validates and converts a string to PendingID.
func ParsePendingID(s string) (PendingID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return PendingID(s), nil
}
