package attribution

import (
	"math"
	"testing"

	"github.com/podsight/attribution-engine/internal/domain"
)

func resultFor(convID, campaignID string, model domain.ModelName, revenue map[string]float64) domain.AttributionResult {
	credits := make(map[string]float64, len(revenue))
	var total float64
	for _, v := range revenue {
		total += v
	}
	for id, v := range revenue {
		if total > 0 {
			credits[id] = v / total
		}
	}
	return domain.AttributionResult{
		ConversionID:    convID,
		CampaignID:      campaignID,
		Model:           model,
		Credits:         credits,
		Revenue:         revenue,
		ConversionValue: total,
	}
}

func TestAggregate(t *testing.T) {
	results := []domain.AttributionResult{
		resultFor("conv-1", "c1", domain.ModelLinear, map[string]float64{"a": 250, "b": 250}),
		resultFor("conv-2", "c1", domain.ModelLinear, map[string]float64{"a": 300}),
		// Different model and campaign must be skipped.
		resultFor("conv-3", "c1", domain.ModelFirstTouch, map[string]float64{"a": 999}),
		resultFor("conv-4", "c2", domain.ModelLinear, map[string]float64{"z": 999}),
	}

	s := Aggregate("c1", domain.ModelLinear, results, 1000)
	if s.AttributedRevenue != 800 {
		t.Errorf("attributed revenue = %v, want 800", s.AttributedRevenue)
	}
	if s.Conversions != 2 {
		t.Errorf("conversions = %d, want 2", s.Conversions)
	}
	if s.ROI == nil {
		t.Fatal("ROI should be defined for positive spend")
	}
	if want := (800.0 - 1000.0) / 1000.0; math.Abs(*s.ROI-want) > creditTolerance {
		t.Errorf("ROI = %v, want %v", *s.ROI, want)
	}
}

func TestAggregate_ZeroSpendUndefinedROI(t *testing.T) {
	results := []domain.AttributionResult{
		resultFor("conv-1", "c1", domain.ModelLinear, map[string]float64{"a": 500}),
	}
	s := Aggregate("c1", domain.ModelLinear, results, 0)
	if s.ROI != nil {
		t.Errorf("ROI = %v, want nil for zero spend", *s.ROI)
	}
	if s.AttributedRevenue != 500 {
		t.Errorf("attributed revenue = %v, want 500", s.AttributedRevenue)
	}
}

func TestApplyResult_MatchesFullRecompute(t *testing.T) {
	r1 := resultFor("conv-1", "c1", domain.ModelTimeDecay, map[string]float64{"a": 120, "b": 80})
	r2 := resultFor("conv-2", "c1", domain.ModelTimeDecay, map[string]float64{"a": 300})

	full := Aggregate("c1", domain.ModelTimeDecay, []domain.AttributionResult{r1, r2}, 500)

	incremental := Aggregate("c1", domain.ModelTimeDecay, []domain.AttributionResult{r1}, 500)
	incremental = ApplyResult(incremental, r2)

	if math.Abs(full.AttributedRevenue-incremental.AttributedRevenue) > creditTolerance {
		t.Errorf("incremental revenue %v != full %v", incremental.AttributedRevenue, full.AttributedRevenue)
	}
	if full.Conversions != incremental.Conversions {
		t.Errorf("incremental conversions %d != full %d", incremental.Conversions, full.Conversions)
	}
	if *full.ROI != *incremental.ROI {
		t.Errorf("incremental ROI %v != full %v", *incremental.ROI, *full.ROI)
	}
}

func TestApplyResult_IgnoresMismatchedResult(t *testing.T) {
	prior := Aggregate("c1", domain.ModelLinear, nil, 100)
	wrongCampaign := resultFor("conv-9", "c2", domain.ModelLinear, map[string]float64{"a": 50})
	got := ApplyResult(prior, wrongCampaign)
	if got.AttributedRevenue != 0 || got.Conversions != 0 {
		t.Errorf("mismatched result was applied: %+v", got)
	}
}
