package domain

import "time"

// Conversion is a terminal business event (purchase, signup) reported by the
// billing/checkout collaborator. TouchpointIDs, when populated by a query,
// are ordered by recency (most recent first).
type Conversion struct {
	ID            string    `json:"id" db:"id"`
	CampaignID    string    `json:"campaign_id" db:"campaign_id"`
	OccurredAt    time.Time `json:"occurred_at" db:"occurred_at"`
	Value         float64   `json:"value" db:"value"`
	TouchpointIDs []string  `json:"touchpoint_ids,omitempty"`

	AttributedAt *time.Time `json:"attributed_at,omitempty" db:"attributed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Validate reports why a conversion is unusable for attribution, or nil.
// A negative value or missing timestamp indicates upstream data corruption
// and must fail the attribution call, not be silently repaired.
func (c Conversion) Validate() error {
	if c.OccurredAt.IsZero() {
		return &InvalidConversionError{ConversionID: c.ID, Reason: "missing timestamp"}
	}
	if c.Value < 0 {
		return &InvalidConversionError{ConversionID: c.ID, Reason: "negative value"}
	}
	return nil
}
