package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shivaapratim/mini-crm/internal/types"
)

type segmentRequest struct {
	Name            string          `json:"name"`
	RulesDefinition json.RawMessage `json:"rulesDefinition"`
}

// handlePreviewSegment computes an audience size without persisting anything.
func (s *Service) handlePreviewSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: request body must be a JSON object", types.ErrInvalidInput))
		return
	}

	size, err := s.segments.PreviewAudience(r.Context(), req.RulesDefinition)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"audienceSize": size,
	})
}

// handleCreateSegment persists a named segment with its rule definition and
// the audience size computed at save time.
func (s *Service) handleCreateSegment(w http.ResponseWriter, r *http.Request) {
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: request body must be a JSON object", types.ErrInvalidInput))
		return
	}

	segment, err := s.segments.CreateSegment(r.Context(), req.Name, req.RulesDefinition)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "Segment created successfully.",
		"segmentId":    segment.ID,
		"audienceSize": segment.LastCalculatedAudienceSize,
	})
}

// handleListCampaigns returns the campaign history view, newest first.
func (s *Service) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.segments.ListCampaigns(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(campaigns),
		"data":    campaigns,
	})
}
