package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shivaapratim/mini-crm/internal/types"
)

/*
 * Staging-table access for the ingestion pipeline.
 *
 * pending_customers and pending_orders have identical shapes, so one set of
 * methods serves both kinds by composing the query name from the kind
 * ("insert-pending-customer", "claim-pending-order", ...).
 *
 * ClaimPending is the atomic claim step: a single conditional UPDATE that
 * both filters on status=PENDING and sets status=PROCESSING (incrementing
 * attempts in the same statement). When two worker invocations overlap on
 * the same batch, exactly one claimant wins each record; the loser skips it.
 */

type pendingRow struct {
	ID           string         `db:"id"`
	Payload      string         `db:"payload"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	Attempts     int64          `db:"attempts"`
	ReceivedAt   string         `db:"received_at"`
	ProcessedAt  sql.NullString `db:"processed_at"`
}

func (r pendingRow) toRecord() (types.PendingRecord, error) {
	receivedAt, err := parseTime(r.ReceivedAt)
	if err != nil {
		return types.PendingRecord{}, fmt.Errorf("pending record %s: %w", r.ID, err)
	}
	processedAt, err := parseTimePtr(r.ProcessedAt)
	if err != nil {
		return types.PendingRecord{}, fmt.Errorf("pending record %s: %w", r.ID, err)
	}
	rec := types.PendingRecord{
		ID:          types.PendingID(r.ID),
		Payload:     json.RawMessage(r.Payload),
		Status:      types.PendingStatus(r.Status),
		Attempts:    r.Attempts,
		ReceivedAt:  receivedAt,
		ProcessedAt: processedAt,
	}
	if r.ErrorMessage.Valid {
		msg := r.ErrorMessage.String
		rec.ErrorMessage = &msg
	}
	return rec, nil
}

// InsertPending durably queues a raw payload with status PENDING and returns
// the new record's identity.
func (s *Store) InsertPending(ctx context.Context, kind types.PendingKind, payload json.RawMessage) (types.PendingID, error) {
	id := types.NewPendingID()
	_, err := s.q.Exec(ctx, "insert-pending-"+string(kind),
		string(id), string(payload), fmtTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("insert pending %s: %w", kind, err)
	}
	return id, nil
}

// SelectPendingBatch returns up to limit PENDING records of the given kind,
// oldest received first.
func (s *Store) SelectPendingBatch(ctx context.Context, kind types.PendingKind, limit int) ([]types.PendingRecord, error) {
	var rows []pendingRow
	if err := s.q.Select(ctx, "select-pending-"+string(kind)+"-batch", &rows, limit); err != nil {
		return nil, fmt.Errorf("select pending %s batch: %w", kind, err)
	}
	records := make([]types.PendingRecord, len(rows))
	for i, r := range rows {
		rec, err := r.toRecord()
		if err != nil {
			return nil, fmt.Errorf("select pending %s batch: %w", kind, err)
		}
		records[i] = rec
	}
	return records, nil
}

// ClaimPending attempts the PENDING -> PROCESSING transition for one record.
// Returns false when another invocation already claimed it (or it is no
// longer PENDING for any reason).
func (s *Store) ClaimPending(ctx context.Context, kind types.PendingKind, id types.PendingID) (bool, error) {
	res, err := s.q.Exec(ctx, "claim-pending-"+string(kind), string(id))
	if err != nil {
		return false, fmt.Errorf("claim pending %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim pending %s %s: %w", kind, id, err)
	}
	return n == 1, nil
}

// CompletePending records terminal success: status COMPLETED, processedAt
// set, any stale error message cleared.
func (s *Store) CompletePending(ctx context.Context, kind types.PendingKind, id types.PendingID) error {
	_, err := s.q.Exec(ctx, "complete-pending-"+string(kind), fmtTime(time.Now()), string(id))
	if err != nil {
		return fmt.Errorf("complete pending %s %s: %w", kind, id, err)
	}
	return nil
}

// FailPending records terminal failure with a truncated diagnostic.
func (s *Store) FailPending(ctx context.Context, kind types.PendingKind, id types.PendingID, msg string) error {
	_, err := s.q.Exec(ctx, "fail-pending-"+string(kind), types.TruncateError(msg), string(id))
	if err != nil {
		return fmt.Errorf("fail pending %s %s: %w", kind, id, err)
	}
	return nil
}

// GetPending fetches one staged record, primarily for status inspection.
// Returns sql.ErrNoRows when absent.
func (s *Store) GetPending(ctx context.Context, kind types.PendingKind, id types.PendingID) (*types.PendingRecord, error) {
	var row pendingRow
	if err := s.q.Get(ctx, "get-pending-"+string(kind), &row, string(id)); err != nil {
		return nil, err
	}
	rec, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
