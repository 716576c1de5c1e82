package api

import (
	"net/http"
)

// handleProcessCustomers runs one batch of pending customer reconciliation.
// Reached through the trigger guard, so method and credentials are already
// checked.
func (s *Service) handleProcessCustomers(w http.ResponseWriter, r *http.Request) {
	report, err := s.reconciler.ProcessPendingCustomers(r.Context())
	if err != nil {
		s.log.Error("customer reconciliation run failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Pending customer batch processed.",
		"processed": report.Processed,
		"failed":    report.Failed,
	})
}

// handleProcessOrders runs one batch of pending order reconciliation.
func (s *Service) handleProcessOrders(w http.ResponseWriter, r *http.Request) {
	report, err := s.reconciler.ProcessPendingOrders(r.Context())
	if err != nil {
		s.log.Error("order reconciliation run failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Pending order batch processed.",
		"processed": report.Processed,
		"failed":    report.Failed,
	})
}
