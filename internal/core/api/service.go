// Package api provides the HTTP handlers for the mini-crm service.
// Thin orchestration layer delegating to ingest, segments, and worker.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shivaapratim/mini-crm/internal/core/auth"
	"github.com/shivaapratim/mini-crm/internal/ingest"
	"github.com/shivaapratim/mini-crm/internal/segments"
	"github.com/shivaapratim/mini-crm/internal/worker"
)

// Service wires HTTP routes to the domain services.
type Service struct {
	ingest     *ingest.Service
	segments   *segments.Service
	reconciler *worker.Reconciler
	guard      *auth.TriggerGuard
	log        *slog.Logger
}

// NewService creates the HTTP service.
func NewService(ingestSvc *ingest.Service, segmentSvc *segments.Service, reconciler *worker.Reconciler, guard *auth.TriggerGuard, log *slog.Logger) (*Service, error) {
	if ingestSvc == nil {
		return nil, fmt.Errorf("ingestSvc cannot be nil")
	}
	if segmentSvc == nil {
		return nil, fmt.Errorf("segmentSvc cannot be nil")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("reconciler cannot be nil")
	}
	if guard == nil {
		return nil, fmt.Errorf("guard cannot be nil")
	}

	return &Service{
		ingest:     ingestSvc,
		segments:   segmentSvc,
		reconciler: reconciler,
		guard:      guard,
		log:        log,
	}, nil
}

// Routes registers all handlers on a fresh mux.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/ping", s.handlePing)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("POST /api/v1/ingest/customers", s.handleIngestCustomer)
	mux.HandleFunc("POST /api/v1/ingest/orders", s.handleIngestOrder)

	mux.HandleFunc("POST /api/v1/segments/preview", s.handlePreviewSegment)
	mux.HandleFunc("POST /api/v1/segments", s.handleCreateSegment)
	mux.HandleFunc("GET /api/v1/campaigns", s.handleListCampaigns)

	mux.HandleFunc("/api/v1/jobs/process-pending-customers", s.guard.Wrap(s.handleProcessCustomers))
	mux.HandleFunc("/api/v1/jobs/process-pending-orders", s.guard.Wrap(s.handleProcessOrders))

	return mux
}

func (s *Service) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "pong"})
}

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mini CRM API is running",
	})
}
