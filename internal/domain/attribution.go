package domain

import (
	"fmt"
	"time"
)

// ModelName identifies an attribution weighting policy.
type ModelName string

const (
	ModelFirstTouch    ModelName = "first_touch"
	ModelLastTouch     ModelName = "last_touch"
	ModelLinear        ModelName = "linear"
	ModelTimeDecay     ModelName = "time_decay"
	ModelPositionBased ModelName = "position_based"
)

// AllModels lists every weighting policy the engine ships with, in the order
// reports present them.
var AllModels = []ModelName{
	ModelFirstTouch,
	ModelLastTouch,
	ModelLinear,
	ModelTimeDecay,
	ModelPositionBased,
}

// AttributionResult is the output of applying one model to one conversion.
// Credits maps touchpoint ID to a credit fraction; fractions sum to 1.0
// (within 1e-9) for a non-empty touchpoint set, and the map is empty when no
// touchpoints survived windowing and dedup.
type AttributionResult struct {
	ConversionID    string             `json:"conversion_id" db:"conversion_id"`
	CampaignID      string             `json:"campaign_id" db:"campaign_id"`
	Model           ModelName          `json:"model" db:"model"`
	Credits         map[string]float64 `json:"credits"`
	Revenue         map[string]float64 `json:"revenue"`
	ConversionValue float64            `json:"conversion_value" db:"conversion_value"`
	ComputedAt      time.Time          `json:"computed_at" db:"computed_at"`
}

// AttributedRevenue returns the total revenue this result assigns across all
// touchpoints. For a non-empty credit map this equals the conversion value.
func (r AttributionResult) AttributedRevenue() float64 {
	var total float64
	for _, v := range r.Revenue {
		total += v
	}
	return total
}

// Empty reports whether no touchpoints qualified for this conversion.
// Callers may want to log this as a signal of tracking gaps.
func (r AttributionResult) Empty() bool { return len(r.Credits) == 0 }

// CampaignROISummary aggregates attribution results for one campaign under
// one model. ROI is nil when spend is zero; division by zero is a reportable
// condition, not a crash.
type CampaignROISummary struct {
	CampaignID        string    `json:"campaign_id" db:"campaign_id"`
	Model             ModelName `json:"model" db:"model"`
	AttributedRevenue float64   `json:"attributed_revenue" db:"attributed_revenue"`
	Conversions       int       `json:"conversions" db:"conversions"`
	Spend             float64   `json:"spend" db:"spend"`
	ROI               *float64  `json:"roi" db:"roi"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// InvalidConversionError indicates a conversion that cannot be attributed
// because its data is corrupt upstream (negative value, missing timestamp).
type InvalidConversionError struct {
	ConversionID string
	Reason       string
}

func (e *InvalidConversionError) Error() string {
	return fmt.Sprintf("invalid conversion %s: %s", e.ConversionID, e.Reason)
}
