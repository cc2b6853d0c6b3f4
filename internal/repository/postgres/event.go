package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
)

// InsertRawEvent stores one touchpoint event as it arrived from the tracking
// pipeline. Duplicate fires are kept; collapsing them is the engine's job.
func (r *Repo) InsertRawEvent(ctx context.Context, ev domain.RawEvent) error {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO podsight_raw_events (id, campaign_id, channel, occurred_at, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO NOTHING
	`, ev.ID, ev.CampaignID, ev.Channel, ev.OccurredAt, []byte(payload))
	if err != nil {
		return fmt.Errorf("insert raw event: %w", err)
	}
	return nil
}

func (r *Repo) ListRawEvents(ctx context.Context, campaignID string, until time.Time, lookbackDays int) ([]domain.RawEvent, error) {
	start := until.AddDate(0, 0, -lookbackDays)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, channel, occurred_at, payload
		FROM podsight_raw_events
		WHERE campaign_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at ASC
	`, campaignID, start, until)
	if err != nil {
		return nil, fmt.Errorf("list raw events: %w", err)
	}
	defer rows.Close()

	var out []domain.RawEvent
	for rows.Next() {
		var ev domain.RawEvent
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.CampaignID, &ev.Channel, &ev.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan raw event: %w", err)
		}
		ev.Payload = payload
		out = append(out, ev)
	}
	return out, rows.Err()
}
