// Package ingest is the intake side of the pipeline: accept a raw payload,
// run the shallow shape check, and durably queue it as a PENDING record.
// Full semantic validation is deferred to the reconciliation worker so this
// path stays low-latency and needs no canonical-store lookups.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shivaapratim/mini-crm/internal/core/db"
	"github.com/shivaapratim/mini-crm/internal/schema"
	"github.com/shivaapratim/mini-crm/internal/types"
)

// Service queues raw customer and order events.
type Service struct {
	store *db.Store
	log   *slog.Logger
}

// NewService creates the intake service.
func NewService(store *db.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// AcceptCustomer shape-checks and queues a raw customer payload, returning
// the pending record's identity. Returns ErrInvalidInput when the payload is
// not an object or lacks email/name.
func (s *Service) AcceptCustomer(ctx context.Context, payload json.RawMessage) (types.PendingID, error) {
	if err := schema.CheckCustomerShape(payload); err != nil {
		return "", err
	}
	id, err := s.store.InsertPending(ctx, types.KindCustomer, payload)
	if err != nil {
		return "", err
	}
	s.log.Debug("customer payload accepted", "pending_id", id)
	return id, nil
}

// AcceptOrder shape-checks and queues a raw order payload. Returns
// ErrInvalidInput when the payload is not an object or lacks
// customerId/orderAmount. Whether the referenced customer exists is checked
// later by the order worker, not here.
func (s *Service) AcceptOrder(ctx context.Context, payload json.RawMessage) (types.PendingID, error) {
	if err := schema.CheckOrderShape(payload); err != nil {
		return "", err
	}
	id, err := s.store.InsertPending(ctx, types.KindOrder, payload)
	if err != nil {
		return "", err
	}
	s.log.Debug("order payload accepted", "pending_id", id)
	return id, nil
}
