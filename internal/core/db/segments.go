package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shivaapratim/mini-crm/internal/types"
)

type segmentRow struct {
	ID                         string `db:"id"`
	Name                       string `db:"name"`
	Rules                      string `db:"rules"`
	LastCalculatedAudienceSize int64  `db:"last_calculated_audience_size"`
	CreatedAt                  string `db:"created_at"`
}

func (r segmentRow) toSegment() (types.Segment, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return types.Segment{}, fmt.Errorf("segment %s: %w", r.ID, err)
	}
	return types.Segment{
		ID:                         types.SegmentID(r.ID),
		Name:                       r.Name,
		Rules:                      json.RawMessage(r.Rules),
		LastCalculatedAudienceSize: r.LastCalculatedAudienceSize,
		CreatedAt:                  createdAt,
	}, nil
}

// InsertSegment persists a segment snapshot: the raw rule definition plus
// the audience size calculated at creation time.
func (s *Store) InsertSegment(ctx context.Context, seg *types.Segment) error {
	if seg.ID == "" {
		seg.ID = types.NewSegmentID()
	}
	seg.CreatedAt = time.Now().UTC()

	_, err := s.q.Exec(ctx, "insert-segment",
		string(seg.ID), seg.Name, string(seg.Rules),
		seg.LastCalculatedAudienceSize, fmtTime(seg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert segment: %w", err)
	}
	return nil
}

// ListSegments returns all segments, most recently created first.
func (s *Store) ListSegments(ctx context.Context) ([]types.Segment, error) {
	var rows []segmentRow
	if err := s.q.Select(ctx, "list-segments", &rows); err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	segments := make([]types.Segment, len(rows))
	for i, r := range rows {
		seg, err := r.toSegment()
		if err != nil {
			return nil, fmt.Errorf("list segments: %w", err)
		}
		segments[i] = seg
	}
	return segments, nil
}
