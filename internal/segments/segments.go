// Package segments implements audience preview, segment creation, and the
// campaign listing over the canonical customer store.
package segments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shivaapratim/mini-crm/internal/core/db"
	"github.com/shivaapratim/mini-crm/internal/rules"
	"github.com/shivaapratim/mini-crm/internal/types"
)

// Service compiles rule definitions and evaluates them against the store.
type Service struct {
	store    *db.Store
	compiler *rules.Compiler
	log      *slog.Logger
}

// NewService creates the segment service. The compiler dialect follows the
// store's driver.
func NewService(store *db.Store, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		compiler: rules.NewCompiler(rules.DialectForDriver(store.DriverName())),
		log:      log,
	}
}

// PreviewAudience compiles a rule definition and counts matching customers
// without persisting anything.
func (s *Service) PreviewAudience(ctx context.Context, rulesDefinition json.RawMessage) (int64, error) {
	groups, err := s.decodeDefinition(rulesDefinition)
	if err != nil {
		return 0, err
	}
	return s.countAudience(ctx, groups)
}

// CreateSegment runs the same compile-and-count as preview, then persists a
// segment snapshot carrying the raw definition and the resulting count.
func (s *Service) CreateSegment(ctx context.Context, name string, rulesDefinition json.RawMessage) (*types.Segment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: segment name is required", types.ErrInvalidInput)
	}
	groups, err := s.decodeDefinition(rulesDefinition)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: rules definition must be a non-empty array of groups", types.ErrInvalidInput)
	}

	audienceSize, err := s.countAudience(ctx, groups)
	if err != nil {
		return nil, err
	}

	segment := &types.Segment{
		Name:                       name,
		Rules:                      rulesDefinition,
		LastCalculatedAudienceSize: audienceSize,
	}
	if err := s.store.InsertSegment(ctx, segment); err != nil {
		return nil, err
	}

	s.log.Info("segment created",
		"segment_id", segment.ID,
		"name", segment.Name,
		"audience_size", audienceSize)
	return segment, nil
}

// Campaign is the listing view of a persisted segment. Delivery stats are
// placeholders until campaign delivery exists.
type Campaign struct {
	ID           types.SegmentID `json:"id"`
	Name         string          `json:"name"`
	CreatedAt    time.Time       `json:"createdAt"`
	AudienceSize int64           `json:"audienceSize"`
	Rules        json.RawMessage `json:"rules"`
	Sent         int64           `json:"sent"`
	Failed       int64           `json:"failed"`
}

// ListCampaigns returns persisted segments as campaign summaries, most
// recent first.
func (s *Service) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	segs, err := s.store.ListSegments(ctx)
	if err != nil {
		return nil, err
	}
	campaigns := make([]Campaign, len(segs))
	for i, seg := range segs {
		campaigns[i] = Campaign{
			ID:           seg.ID,
			Name:         seg.Name,
			CreatedAt:    seg.CreatedAt,
			AudienceSize: seg.LastCalculatedAudienceSize,
			Rules:        seg.Rules,
		}
	}
	return campaigns, nil
}

// decodeDefinition parses the submitted definition, rejecting anything that
// is not a JSON array of groups.
func (s *Service) decodeDefinition(rulesDefinition json.RawMessage) ([]types.RuleNode, error) {
	if len(rulesDefinition) == 0 {
		return nil, fmt.Errorf("%w: rules definition is required and must be an array of groups", types.ErrInvalidInput)
	}
	groups, err := types.DecodeRuleDefinition(rulesDefinition)
	if err != nil {
		return nil, fmt.Errorf("%w: rules definition is required and must be an array of groups", types.ErrInvalidInput)
	}
	return groups, nil
}

// countAudience compiles and counts. An empty predicate counts the full
// population: either nothing was filtered (all rule values empty) or the
// rules were unusable, which is worth a warning but still matches all.
func (s *Service) countAudience(ctx context.Context, groups []types.RuleNode) (int64, error) {
	result := s.compiler.Compile(groups, time.Now())
	for _, d := range result.Dropped {
		s.log.Warn("rule dropped during segment compile",
			"field", d.Field, "operator", d.Operator, "reason", d.Reason)
	}

	if !result.HasConditions {
		if !rules.AllRuleValuesEmpty(groups) {
			s.log.Warn("rule definition produced no usable conditions; counting full population")
		}
		return s.store.CountCustomers(ctx)
	}

	return s.store.CountCustomersWhere(ctx, result.Predicate.SQL, result.Predicate.Args...)
}
