package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/service/reporting"
)

func (r *Repo) CreateConversion(ctx context.Context, c *domain.Conversion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO podsight_conversions (id, campaign_id, occurred_at, value, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, c.ID, c.CampaignID, c.OccurredAt, c.Value)
	if err != nil {
		return fmt.Errorf("create conversion: %w", err)
	}
	return nil
}

func (r *Repo) GetConversion(ctx context.Context, id string) (*domain.Conversion, error) {
	c := &domain.Conversion{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, occurred_at, value, attributed_at, created_at
		FROM podsight_conversions
		WHERE id = $1
	`, id).Scan(&c.ID, &c.CampaignID, &c.OccurredAt, &c.Value, &c.AttributedAt, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, reporting.ErrConversionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return c, nil
}

func (r *Repo) ListUnattributed(ctx context.Context, limit int) ([]domain.Conversion, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, occurred_at, value, attributed_at, created_at
		FROM podsight_conversions
		WHERE attributed_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unattributed: %w", err)
	}
	defer rows.Close()

	var out []domain.Conversion
	for rows.Next() {
		var c domain.Conversion
		if err := rows.Scan(&c.ID, &c.CampaignID, &c.OccurredAt, &c.Value, &c.AttributedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) MarkAttributed(ctx context.Context, conversionID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE podsight_conversions SET attributed_at = $2 WHERE id = $1
	`, conversionID, at)
	if err != nil {
		return fmt.Errorf("mark attributed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reporting.ErrConversionNotFound
	}
	return nil
}
