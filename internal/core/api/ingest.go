package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shivaapratim/mini-crm/internal/types"
)

// maxIngestBody caps ingest payloads at 1 MiB. Staged payloads are stored
// verbatim, so an unbounded body would land in the pending tables as-is.
const maxIngestBody = 1 << 20

// handleIngestCustomer stages a raw customer event and acknowledges with
// 202 Accepted. No canonical write happens here; reconciliation is async.
func (s *Service) handleIngestCustomer(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pendingID, err := s.ingest.AcceptCustomer(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"message":   "Customer data accepted for processing.",
		"pendingId": pendingID,
	})
}

// handleIngestOrder stages a raw order event and acknowledges with 202.
func (s *Service) handleIngestOrder(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pendingID, err := s.ingest.AcceptOrder(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"message":   "Order data accepted for processing.",
		"pendingId": pendingID,
	})
}

// readBody reads a bounded request body and requires it to be valid JSON.
func readBody(r *http.Request) (json.RawMessage, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read request body", types.ErrInvalidInput)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: request body must be valid JSON", types.ErrInvalidInput)
	}
	return raw, nil
}
