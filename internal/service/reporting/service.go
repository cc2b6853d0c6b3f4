package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/podsight/attribution-engine/internal/attribution"
	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/pkg/logger"
)

// Service implements reporting business logic around the attribution engine.
// All public methods are safe for concurrent use if the underlying repository
// is concurrency-safe.
type Service struct {
	repo         Repository
	engine       *attribution.Engine
	cache        *SummaryCache
	activeModels []domain.ModelName
}

// NewService creates a reporting service. cache may be nil, in which case
// summary reads always hit the repository. activeModels defaults to all
// registered models when empty.
func NewService(repo Repository, engine *attribution.Engine, cache *SummaryCache, activeModels []domain.ModelName) *Service {
	if len(activeModels) == 0 {
		activeModels = domain.AllModels
	}
	return &Service{repo: repo, engine: engine, cache: cache, activeModels: activeModels}
}

// RecordConversionInput holds the fields the billing collaborator reports
// when a purchase or signup completes.
type RecordConversionInput struct {
	CampaignID string             `json:"campaign_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	Value      float64            `json:"value"`
	Models     []domain.ModelName `json:"models,omitempty"`
}

// RecordConversion persists a new conversion and attributes it synchronously
// under every active model.
func (s *Service) RecordConversion(ctx context.Context, input RecordConversionInput) (*domain.Conversion, map[domain.ModelName]domain.AttributionResult, error) {
	if input.CampaignID == "" {
		return nil, nil, fmt.Errorf("campaign_id is required")
	}

	conv := &domain.Conversion{
		ID:         uuid.New().String(),
		CampaignID: input.CampaignID,
		OccurredAt: input.OccurredAt.UTC(),
		Value:      input.Value,
	}
	if err := conv.Validate(); err != nil {
		return nil, nil, err
	}

	if err := s.repo.CreateConversion(ctx, conv); err != nil {
		return nil, nil, fmt.Errorf("create conversion: %w", err)
	}

	results, err := s.Attribute(ctx, conv.ID, input.Models)
	if err != nil {
		return nil, nil, err
	}
	return conv, results, nil
}

// Attribute runs the engine for one stored conversion and persists the
// outcome: one result per model, then a refreshed ROI summary per touched
// (campaign, model) pair. models defaults to the service's active set.
//
// The call is idempotent: results are replaced, and summaries are fully
// recomputed from stored results rather than incremented, so a retry racing
// a first attempt cannot double count.
func (s *Service) Attribute(ctx context.Context, conversionID string, models []domain.ModelName) (map[domain.ModelName]domain.AttributionResult, error) {
	conv, err := s.repo.GetConversion(ctx, conversionID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		models = s.activeModels
	}

	events, err := s.repo.ListRawEvents(ctx, conv.CampaignID, conv.OccurredAt, s.engine.Config().WindowDays)
	if err != nil {
		return nil, fmt.Errorf("list raw events: %w", err)
	}

	results, err := s.engine.AttributeConversion(*conv, events, models)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if err := s.repo.UpsertResult(ctx, r); err != nil {
			return nil, fmt.Errorf("store result (%s, %s): %w", r.ConversionID, r.Model, err)
		}
	}
	if err := s.repo.MarkAttributed(ctx, conv.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("mark attributed: %w", err)
	}

	for model := range results {
		if err := s.refreshSummary(ctx, conv.CampaignID, model); err != nil {
			return nil, err
		}
	}

	logger.Info("conversion attributed",
		"conversion_id", conv.ID,
		"campaign_id", conv.CampaignID,
		"models", len(results),
		"value", conv.Value)
	return results, nil
}

// refreshSummary recomputes the (campaign, model) summary from all stored
// results and writes it through the cache.
func (s *Service) refreshSummary(ctx context.Context, campaignID string, model domain.ModelName) error {
	stored, err := s.repo.ListResultsByCampaign(ctx, campaignID, model)
	if err != nil {
		return fmt.Errorf("list results for summary: %w", err)
	}

	spend, err := s.repo.GetSpend(ctx, campaignID)
	if err != nil && err != ErrCampaignNotFound {
		return fmt.Errorf("get spend: %w", err)
	}

	summary := attribution.Aggregate(campaignID, model, stored, spend)
	if err := s.repo.UpsertSummary(ctx, summary); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, summary)
	}
	return nil
}

// ConversionResults returns all stored attribution results for a conversion.
func (s *Service) ConversionResults(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	if _, err := s.repo.GetConversion(ctx, conversionID); err != nil {
		return nil, err
	}
	return s.repo.ListResultsByConversion(ctx, conversionID)
}

// CampaignSummary returns the ROI summary for (campaign, model), preferring
// the cache when one is configured.
func (s *Service) CampaignSummary(ctx context.Context, campaignID string, model domain.ModelName) (*domain.CampaignROISummary, error) {
	if _, ok := attribution.LookupModel(model); !ok {
		return nil, &attribution.UnknownModelError{Name: model, Valid: domain.AllModels}
	}
	if s.cache != nil {
		if summary, ok := s.cache.Get(ctx, campaignID, model); ok {
			return summary, nil
		}
	}
	summary, err := s.repo.GetSummary(ctx, campaignID, model)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, *summary)
	}
	return summary, nil
}

// SetSpend records campaign spend and refreshes every active model's summary
// for that campaign, since ROI depends on spend.
func (s *Service) SetSpend(ctx context.Context, campaignID string, spend float64) error {
	if spend < 0 {
		return ErrNegativeSpend
	}
	if err := s.repo.SetSpend(ctx, campaignID, spend); err != nil {
		return fmt.Errorf("set spend: %w", err)
	}
	for _, model := range s.activeModels {
		if err := s.refreshSummary(ctx, campaignID, model); err != nil {
			return err
		}
	}
	return nil
}

// ActiveModels returns the models this deployment attributes under.
func (s *Service) ActiveModels() []domain.ModelName { return s.activeModels }
