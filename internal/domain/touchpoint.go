package domain

import (
	"encoding/json"
	"time"
)

// Channel enumerates the marketing surfaces a touchpoint can originate from.
type Channel string

const (
	ChannelPromoCode Channel = "promo_code"
	ChannelPixel     Channel = "pixel"
	ChannelUTM       Channel = "utm"
)

// KnownChannels lists every channel the platform accepts from the ingestion
// gateway. Events carrying any other tag are rejected at the edge.
var KnownChannels = []Channel{ChannelPromoCode, ChannelPixel, ChannelUTM}

// IsValid reports whether c is a recognized channel tag.
func (c Channel) IsValid() bool {
	for _, k := range KnownChannels {
		if c == k {
			return true
		}
	}
	return false
}

// RawEvent is a touchpoint event exactly as it arrived from a tracking
// surface, before deduplication. Double-fired pixels and replayed promo
// redemptions show up here as separate rows.
type RawEvent struct {
	ID         string          `json:"id" db:"id"`
	CampaignID string          `json:"campaign_id" db:"campaign_id"`
	Channel    Channel         `json:"channel" db:"channel"`
	OccurredAt time.Time       `json:"occurred_at" db:"occurred_at"`
	Payload    json.RawMessage `json:"payload" db:"payload"`
}

// Touchpoint is a single interaction between a listener and a marketing
// surface, after deduplication. Immutable once recorded; the engine never
// mutates or deletes touchpoints.
type Touchpoint struct {
	ID          string          `json:"id" db:"id"`
	CampaignID  string          `json:"campaign_id" db:"campaign_id"`
	Channel     Channel         `json:"channel" db:"channel"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty" db:"payload"`
	PayloadHash string          `json:"payload_hash" db:"payload_hash"`
}
