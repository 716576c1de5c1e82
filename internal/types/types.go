// Package types provides domain models shared across mini-crm components.
//
// Canonical entities (Customer, Order, Segment) mirror the store schema;
// PendingRecord is the durable staging row the ingestion pipeline queues
// before reconciliation. Raw event payloads stay opaque (json.RawMessage)
// until the reconciliation worker validates them against the canonical
// contract in internal/schema.
package types

import (
	"encoding/json"
	"time"
)

// Customer is the canonical identity-bearing entity. Email is the identity
// key: lowercased, unique across the store. TotalSpends and VisitCount are
// running sums over accepted events, never recomputed from history.
type Customer struct {
	ID               CustomerID     `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	TotalSpends      float64        `json:"totalSpends"`
	VisitCount       int64          `json:"visitCount"`
	LastSeenDate     *time.Time     `json:"lastSeenDate,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	CustomAttributes map[string]any `json:"customAttributes,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Order is immutable once created. CustomerID must reference an existing
// Customer at commit time; the order worker enforces this before insert.
type Order struct {
	ID          OrderID     `json:"id"`
	CustomerID  CustomerID  `json:"customerId"`
	OrderAmount float64     `json:"orderAmount"`
	OrderDate   time.Time   `json:"orderDate"`
	Items       []OrderItem `json:"items,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
}

// Segment is a persisted query specification plus a cached audience count.
// Immutable after creation except for re-snapshotting the audience size.
type Segment struct {
	ID                         SegmentID       `json:"id"`
	Name                       string          `json:"name"`
	Rules                      json.RawMessage `json:"rules"`
	LastCalculatedAudienceSize int64           `json:"lastCalculatedAudienceSize"`
	CreatedAt                  time.Time       `json:"createdAt"`
}

// PendingKind selects which staging table a PendingRecord lives in.
type PendingKind string

const (
	KindCustomer PendingKind = "customer"
	KindOrder    PendingKind = "order"
)

// PendingStatus is the reconciliation state machine for a staged record.
// PENDING -> PROCESSING on claim, then COMPLETED or FAILED. There is no
// automated transition out of PROCESSING; a crash mid-attempt leaves the
// record visible there rather than silently lost.
type PendingStatus string

const (
	StatusPending    PendingStatus = "PENDING"
	StatusProcessing PendingStatus = "PROCESSING"
	StatusCompleted  PendingStatus = "COMPLETED"
	StatusFailed     PendingStatus = "FAILED"
)

// PendingRecord is a durably queued raw event awaiting validation and merge
// into the canonical store. Payload stays untyped until the worker validates
// it; Attempts counts every processing attempt but drives no retry scheduler.
type PendingRecord struct {
	ID           PendingID       `json:"id"`
	Payload      json.RawMessage `json:"payload"`
	Status       PendingStatus   `json:"status"`
	ErrorMessage *string         `json:"errorMessage,omitempty"`
	Attempts     int64           `json:"attempts"`
	ReceivedAt   time.Time       `json:"receivedAt"`
	ProcessedAt  *time.Time      `json:"processedAt,omitempty"`
}

// Limits enforced across the pipeline.
const (
	// MaxErrorMessageLength bounds the diagnostic stored on a FAILED record.
	// 500 chars keeps validation error dumps from bloating the staging table.
	MaxErrorMessageLength = 500

	// DefaultBatchSize is the number of PENDING records one worker run selects.
	DefaultBatchSize = 10
)

// TruncateError bounds an error message to MaxErrorMessageLength for storage.
// Empty input gets a generic placeholder so FAILED records always carry a
// diagnostic.
func TruncateError(msg string) string {
	if msg == "" {
		return "Unknown processing error"
	}
	if len(msg) > MaxErrorMessageLength {
		return msg[:MaxErrorMessageLength]
	}
	return msg
}
