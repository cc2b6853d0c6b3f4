package attribution

import (
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
)

// FilterWindow restricts the touchpoint set considered for a conversion to
// those within the attribution lookback window. Touchpoints from a different
// campaign are always excluded. Both window bounds are inclusive: a
// touchpoint dated exactly windowDays before the conversion is in, one dated
// a single nanosecond earlier is out.
//
// A zero-touchpoint result is valid; every model handles it by returning no
// credits, not by erroring.
func FilterWindow(tps []domain.Touchpoint, conv domain.Conversion, windowDays int) []domain.Touchpoint {
	start := conv.OccurredAt.Add(-time.Duration(windowDays) * 24 * time.Hour)
	end := conv.OccurredAt

	var out []domain.Touchpoint
	for _, tp := range tps {
		if tp.CampaignID != conv.CampaignID {
			continue
		}
		if tp.OccurredAt.Before(start) || tp.OccurredAt.After(end) {
			continue
		}
		out = append(out, tp)
	}
	return out
}
