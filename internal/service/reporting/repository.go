package reporting

import (
	"context"
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
)

// Repository defines the data access contract for the reporting service.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateConversion inserts a conversion reported by the billing
	// collaborator. The ID is assigned by the caller.
	CreateConversion(ctx context.Context, c *domain.Conversion) error

	// GetConversion returns a single conversion. Returns ErrConversionNotFound
	// if it doesn't exist.
	GetConversion(ctx context.Context, id string) (*domain.Conversion, error)

	// ListUnattributed returns up to limit conversions that have never been
	// attributed, oldest first.
	ListUnattributed(ctx context.Context, limit int) ([]domain.Conversion, error)

	// MarkAttributed stamps a conversion as attributed at the given time.
	MarkAttributed(ctx context.Context, conversionID string, at time.Time) error

	// ListRawEvents returns the raw touchpoint events for a campaign with
	// occurred_at in [until - lookbackDays, until], oldest first. Dedup and
	// windowing happen in the engine, not in SQL.
	ListRawEvents(ctx context.Context, campaignID string, until time.Time, lookbackDays int) ([]domain.RawEvent, error)

	// UpsertResult stores an attribution result keyed on (conversion, model).
	// A repeat is a replace, never an addition.
	UpsertResult(ctx context.Context, r domain.AttributionResult) error

	// ListResultsByConversion returns all stored results for one conversion.
	ListResultsByConversion(ctx context.Context, conversionID string) ([]domain.AttributionResult, error)

	// ListResultsByCampaign returns all stored results for one campaign and
	// model, across conversions.
	ListResultsByCampaign(ctx context.Context, campaignID string, model domain.ModelName) ([]domain.AttributionResult, error)

	// GetSpend returns the recorded spend for a campaign. Returns
	// ErrCampaignNotFound if no spend was ever recorded.
	GetSpend(ctx context.Context, campaignID string) (float64, error)

	// SetSpend records campaign spend supplied by the billing collaborator.
	SetSpend(ctx context.Context, campaignID string, spend float64) error

	// UpsertSummary stores a campaign ROI summary keyed on (campaign, model).
	UpsertSummary(ctx context.Context, s domain.CampaignROISummary) error

	// GetSummary returns the stored summary for (campaign, model). Returns
	// ErrSummaryNotFound if the pair was never aggregated.
	GetSummary(ctx context.Context, campaignID string, model domain.ModelName) (*domain.CampaignROISummary, error)
}
