package attribution

import (
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
)

// Aggregate rolls up attribution results into a campaign ROI summary for one
// model. Results for other campaigns or models are skipped rather than
// corrupting the total, since batch callers often hold mixed slices.
//
// ROI is (attributed revenue − spend) / spend when spend > 0, and nil when
// spend is zero: an undefined ratio is a reportable condition, not a crash.
func Aggregate(campaignID string, model domain.ModelName, results []domain.AttributionResult, spend float64) domain.CampaignROISummary {
	s := domain.CampaignROISummary{
		CampaignID: campaignID,
		Model:      model,
		Spend:      spend,
		UpdatedAt:  time.Now().UTC(),
	}
	for _, r := range results {
		if r.CampaignID != campaignID || r.Model != model {
			continue
		}
		s.AttributedRevenue += r.AttributedRevenue()
		s.Conversions++
	}
	s.ROI = computeROI(s.AttributedRevenue, spend)
	return s
}

// ApplyResult folds one new attribution result into a prior summary without
// re-scanning history. Addition over attributed revenue is associative and
// commutative, so incremental and full recomputation agree.
//
// Callers are responsible for not applying the same conversion twice: stored
// results are keyed on (conversion, model) and a repeat is a replace, which
// must go through a full Aggregate instead.
func ApplyResult(prior domain.CampaignROISummary, r domain.AttributionResult) domain.CampaignROISummary {
	if r.CampaignID != prior.CampaignID || r.Model != prior.Model {
		return prior
	}
	prior.AttributedRevenue += r.AttributedRevenue()
	prior.Conversions++
	prior.ROI = computeROI(prior.AttributedRevenue, prior.Spend)
	prior.UpdatedAt = time.Now().UTC()
	return prior
}

func computeROI(revenue, spend float64) *float64 {
	if spend <= 0 {
		return nil
	}
	roi := (revenue - spend) / spend
	return &roi
}
