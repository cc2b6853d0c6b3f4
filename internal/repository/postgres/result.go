package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/service/reporting"
)

// UpsertResult stores an attribution result. The (conversion, model) primary
// key makes a retried attribution a replace, never an addition, so
// at-least-once delivery upstream cannot double count.
func (r *Repo) UpsertResult(ctx context.Context, res domain.AttributionResult) error {
	credits, err := json.Marshal(res.Credits)
	if err != nil {
		return fmt.Errorf("marshal credits: %w", err)
	}
	revenue, err := json.Marshal(res.Revenue)
	if err != nil {
		return fmt.Errorf("marshal revenue: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO podsight_attribution_results
			(conversion_id, campaign_id, model, credits, revenue, conversion_value, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (conversion_id, model) DO UPDATE SET
			credits = EXCLUDED.credits,
			revenue = EXCLUDED.revenue,
			conversion_value = EXCLUDED.conversion_value,
			computed_at = EXCLUDED.computed_at
	`, res.ConversionID, res.CampaignID, res.Model, credits, revenue, res.ConversionValue, res.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (r *Repo) ListResultsByConversion(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	return r.listResults(ctx, `
		SELECT conversion_id, campaign_id, model, credits, revenue, conversion_value, computed_at
		FROM podsight_attribution_results
		WHERE conversion_id = $1
		ORDER BY model ASC
	`, conversionID)
}

func (r *Repo) ListResultsByCampaign(ctx context.Context, campaignID string, model domain.ModelName) ([]domain.AttributionResult, error) {
	return r.listResults(ctx, `
		SELECT conversion_id, campaign_id, model, credits, revenue, conversion_value, computed_at
		FROM podsight_attribution_results
		WHERE campaign_id = $1 AND model = $2
		ORDER BY computed_at ASC
	`, campaignID, model)
}

func (r *Repo) listResults(ctx context.Context, query string, args ...interface{}) ([]domain.AttributionResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.AttributionResult
	for rows.Next() {
		var res domain.AttributionResult
		var credits, revenue []byte
		if err := rows.Scan(&res.ConversionID, &res.CampaignID, &res.Model,
			&credits, &revenue, &res.ConversionValue, &res.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(credits, &res.Credits); err != nil {
			return nil, fmt.Errorf("decode credits: %w", err)
		}
		if err := json.Unmarshal(revenue, &res.Revenue); err != nil {
			return nil, fmt.Errorf("decode revenue: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) GetSpend(ctx context.Context, campaignID string) (float64, error) {
	var spend float64
	err := r.db.QueryRowContext(ctx, `
		SELECT spend FROM podsight_campaigns WHERE id = $1
	`, campaignID).Scan(&spend)
	if err == sql.ErrNoRows {
		return 0, reporting.ErrCampaignNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get spend: %w", err)
	}
	return spend, nil
}

func (r *Repo) SetSpend(ctx context.Context, campaignID string, spend float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO podsight_campaigns (id, spend, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET spend = EXCLUDED.spend, updated_at = NOW()
	`, campaignID, spend)
	if err != nil {
		return fmt.Errorf("set spend: %w", err)
	}
	return nil
}

func (r *Repo) UpsertSummary(ctx context.Context, s domain.CampaignROISummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO podsight_roi_summaries
			(campaign_id, model, attributed_revenue, conversions, spend, roi, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (campaign_id, model) DO UPDATE SET
			attributed_revenue = EXCLUDED.attributed_revenue,
			conversions = EXCLUDED.conversions,
			spend = EXCLUDED.spend,
			roi = EXCLUDED.roi,
			updated_at = EXCLUDED.updated_at
	`, s.CampaignID, s.Model, s.AttributedRevenue, s.Conversions, s.Spend, s.ROI, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (r *Repo) GetSummary(ctx context.Context, campaignID string, model domain.ModelName) (*domain.CampaignROISummary, error) {
	s := &domain.CampaignROISummary{}
	err := r.db.QueryRowContext(ctx, `
		SELECT campaign_id, model, attributed_revenue, conversions, spend, roi, updated_at
		FROM podsight_roi_summaries
		WHERE campaign_id = $1 AND model = $2
	`, campaignID, model).Scan(&s.CampaignID, &s.Model, &s.AttributedRevenue,
		&s.Conversions, &s.Spend, &s.ROI, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, reporting.ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return s, nil
}
