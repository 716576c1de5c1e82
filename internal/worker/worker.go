// Package worker implements the reconciliation side of the pipeline: pull a
// bounded batch of PENDING records, validate each against the canonical
// contract, merge or create canonical entities, and advance each record's
// status.
//
// State machine per record: PENDING -> PROCESSING on claim, then COMPLETED
// on successful merge or FAILED on any validation or business error. The
// claim is a single conditional UPDATE (filters on PENDING, sets
// PROCESSING), so overlapping worker invocations that select the same batch
// resolve to exactly one claimant per record. There is no transition out of
// PROCESSING: a crash mid-attempt orphans the record there, visible but
// never re-queued. Attempts is tracked per claim but drives no retry.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shivaapratim/mini-crm/internal/core/db"
	"github.com/shivaapratim/mini-crm/internal/schema"
	"github.com/shivaapratim/mini-crm/internal/types"
)

// Reconciler runs one batch of pending-record processing per invocation.
// Invoked by the scheduled-job endpoints, not continuously running.
type Reconciler struct {
	store     *db.Store
	batchSize int
	log       *slog.Logger
}

// NewReconciler creates a reconciler. batchSize <= 0 falls back to the
// default of 10.
func NewReconciler(store *db.Store, batchSize int, log *slog.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = types.DefaultBatchSize
	}
	return &Reconciler{store: store, batchSize: batchSize, log: log}
}

// RunReport summarizes one worker invocation. An empty batch is a no-op run
// with zero counts, not an error.
type RunReport struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// ProcessPendingCustomers reconciles one batch of staged customer events.
// Per-record failures are recorded on the record and never abort the batch;
// store failures around selection and status transitions fail the whole run.
func (r *Reconciler) ProcessPendingCustomers(ctx context.Context) (RunReport, error) {
	return r.processBatch(ctx, types.KindCustomer, r.reconcileCustomer)
}

// ProcessPendingOrders reconciles one batch of staged order events.
func (r *Reconciler) ProcessPendingOrders(ctx context.Context) (RunReport, error) {
	return r.processBatch(ctx, types.KindOrder, r.reconcileOrder)
}

// processBatch runs the per-batch protocol: select oldest-first, claim each
// record, reconcile, and record the terminal status. Records are handled
// strictly in receipt order, one at a time.
func (r *Reconciler) processBatch(ctx context.Context, kind types.PendingKind, reconcile func(context.Context, types.PendingRecord) error) (RunReport, error) {
	var report RunReport

	batch, err := r.store.SelectPendingBatch(ctx, kind, r.batchSize)
	if err != nil {
		return report, err
	}
	if len(batch) == 0 {
		r.log.Info("no pending records to process", "kind", kind)
		return report, nil
	}

	for _, rec := range batch {
		claimed, err := r.store.ClaimPending(ctx, kind, rec.ID)
		if err != nil {
			return report, err
		}
		if !claimed {
			// Another invocation won the claim between select and update.
			r.log.Debug("pending record already claimed", "kind", kind, "id", rec.ID)
			continue
		}

		if err := reconcile(ctx, rec); err != nil {
			r.log.Error("pending record failed",
				"kind", kind, "id", rec.ID, "error", err)
			if ferr := r.store.FailPending(ctx, kind, rec.ID, err.Error()); ferr != nil {
				return report, ferr
			}
			report.Failed++
			continue
		}

		if err := r.store.CompletePending(ctx, kind, rec.ID); err != nil {
			return report, err
		}
		report.Processed++
	}

	r.log.Info("batch processed",
		"kind", kind, "processed", report.Processed, "failed", report.Failed)
	return report, nil
}

// reconcileCustomer validates the payload and merges it into the canonical
// store, keyed by lowercased email. Aggregates accumulate additively; the
// same payload applied twice doubles them. That mirrors the pipeline's
// documented non-idempotent merge semantics.
func (r *Reconciler) reconcileCustomer(ctx context.Context, rec types.PendingRecord) error {
	incoming, err := schema.ValidateCustomer(rec.Payload)
	if err != nil {
		return err
	}

	existing, err := r.store.GetCustomerByEmail(ctx, incoming.Email)
	switch {
	case err == nil:
		mergeCustomer(existing, incoming)
		if err := r.store.UpdateCustomer(ctx, existing); err != nil {
			return err
		}
		r.log.Info("updated existing customer", "email", existing.Email)
		return nil
	case errors.Is(err, sql.ErrNoRows):
		if err := r.store.InsertCustomer(ctx, incoming); err != nil {
			return err
		}
		r.log.Info("created new customer", "email", incoming.Email)
		return nil
	default:
		return err
	}
}

// mergeCustomer applies an incoming validated payload onto an existing
// customer: identity-adjacent fields overwrite when present, aggregates
// accumulate, custom attributes union with incoming keys winning.
func mergeCustomer(existing, incoming *types.Customer) {
	if incoming.Name != "" {
		existing.Name = incoming.Name
	}
	if incoming.Phone != "" {
		existing.Phone = incoming.Phone
	}
	if incoming.TotalSpends != 0 {
		existing.TotalSpends += incoming.TotalSpends
	}
	if incoming.VisitCount != 0 {
		existing.VisitCount += incoming.VisitCount
	}
	if incoming.LastSeenDate != nil {
		existing.LastSeenDate = incoming.LastSeenDate
	}
	if len(incoming.Tags) > 0 {
		existing.Tags = incoming.Tags
	}
	if len(incoming.CustomAttributes) > 0 {
		if existing.CustomAttributes == nil {
			existing.CustomAttributes = make(map[string]any, len(incoming.CustomAttributes))
		}
		for k, v := range incoming.CustomAttributes {
			existing.CustomAttributes[k] = v
		}
	}
}

// reconcileOrder validates the payload, enforces the referential check, and
// commits the order plus the customer's aggregate bump: totalSpends +=
// orderAmount, visitCount += 1, lastSeenDate = order date.
func (r *Reconciler) reconcileOrder(ctx context.Context, rec types.PendingRecord) error {
	incoming, err := schema.ValidateOrder(rec.Payload, time.Now().UTC())
	if err != nil {
		return err
	}

	customer, err := r.store.GetCustomerByID(ctx, incoming.CustomerID)
	if errors.Is(err, sql.ErrNoRows) {
		// An order can never be committed without its customer.
		return fmt.Errorf("%w: customer with ID %s not found", types.ErrCustomerNotFound, incoming.CustomerID)
	}
	if err != nil {
		return err
	}

	if err := r.store.InsertOrder(ctx, incoming); err != nil {
		return err
	}
	r.log.Info("created new order", "order_id", incoming.ID, "customer_email", customer.Email)

	customer.TotalSpends += incoming.OrderAmount
	customer.VisitCount++
	orderDate := incoming.OrderDate
	customer.LastSeenDate = &orderDate
	if err := r.store.UpdateCustomer(ctx, customer); err != nil {
		return err
	}

	return nil
}
