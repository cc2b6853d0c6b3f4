package attribution

import (
	"math"

	"github.com/podsight/attribution-engine/internal/domain"
)

// ModelFunc is a pure weighting policy: given the windowed touchpoints for a
// conversion (already sorted by occurrence) it returns a map of touchpoint ID
// to credit fraction. Fractions sum to 1.0 for non-empty input; empty input
// yields an empty map.
type ModelFunc func(tps []domain.Touchpoint, conv domain.Conversion, cfg Config) map[string]float64

// models is the registered weighting policy set. Lookups outside this map
// fail fast with UnknownModelError in the orchestrator.
var models = map[domain.ModelName]ModelFunc{
	domain.ModelFirstTouch:    firstTouch,
	domain.ModelLastTouch:     lastTouch,
	domain.ModelLinear:        linear,
	domain.ModelTimeDecay:     timeDecay,
	domain.ModelPositionBased: positionBased,
}

// LookupModel returns the registered ModelFunc for name.
func LookupModel(name domain.ModelName) (ModelFunc, bool) {
	fn, ok := models[name]
	return fn, ok
}

// firstTouch gives 100% credit to the earliest touchpoint. Touchpoints
// sharing the earliest timestamp split the credit equally.
func firstTouch(tps []domain.Touchpoint, _ domain.Conversion, _ Config) map[string]float64 {
	if len(tps) == 0 {
		return map[string]float64{}
	}
	earliest := tps[0].OccurredAt
	var winners []string
	for _, tp := range tps {
		if tp.OccurredAt.Equal(earliest) {
			winners = append(winners, tp.ID)
		}
	}
	return splitEqually(winners)
}

// lastTouch gives 100% credit to the touchpoint closest to the conversion.
// Ties at the latest timestamp split equally.
func lastTouch(tps []domain.Touchpoint, _ domain.Conversion, _ Config) map[string]float64 {
	if len(tps) == 0 {
		return map[string]float64{}
	}
	latest := tps[len(tps)-1].OccurredAt
	var winners []string
	for _, tp := range tps {
		if tp.OccurredAt.Equal(latest) {
			winners = append(winners, tp.ID)
		}
	}
	return splitEqually(winners)
}

// linear splits credit equally across every touchpoint in the window.
func linear(tps []domain.Touchpoint, _ domain.Conversion, _ Config) map[string]float64 {
	ids := make([]string, len(tps))
	for i, tp := range tps {
		ids[i] = tp.ID
	}
	return splitEqually(ids)
}

// timeDecay weights each touchpoint by 2^(-Δt/halfLife), where Δt is its
// distance from the conversion, then normalizes. A touchpoint one half-life
// older than another carries half its weight.
func timeDecay(tps []domain.Touchpoint, conv domain.Conversion, cfg Config) map[string]float64 {
	if len(tps) == 0 {
		return map[string]float64{}
	}
	credits := make(map[string]float64, len(tps))
	var total float64
	for _, tp := range tps {
		dt := conv.OccurredAt.Sub(tp.OccurredAt)
		w := math.Exp2(-dt.Seconds() / cfg.HalfLife.Seconds())
		credits[tp.ID] = w
		total += w
	}
	for id := range credits {
		credits[id] /= total
	}
	return credits
}

// positionBased assigns configurable shares to the first and last touchpoints
// and splits the middle bucket equally among the rest (40/40/20 by default).
// One touchpoint gets everything. With exactly two, the first keeps its base
// share and the last absorbs the middle bucket, so the default split is 40/60
// first/last. Weights are normalized so the total is 1.0 for any config and
// any touchpoint count.
func positionBased(tps []domain.Touchpoint, _ domain.Conversion, cfg Config) map[string]float64 {
	n := len(tps)
	if n == 0 {
		return map[string]float64{}
	}

	total := cfg.PositionFirst + cfg.PositionLast + cfg.PositionMiddle
	first := cfg.PositionFirst / total
	last := cfg.PositionLast / total
	middle := cfg.PositionMiddle / total

	credits := make(map[string]float64, n)
	switch n {
	case 1:
		credits[tps[0].ID] = 1.0
	case 2:
		credits[tps[0].ID] = first
		credits[tps[1].ID] = last + middle
	default:
		perMiddle := middle / float64(n-2)
		credits[tps[0].ID] = first
		credits[tps[n-1].ID] = last
		for _, tp := range tps[1 : n-1] {
			credits[tp.ID] = perMiddle
		}
	}
	return credits
}

// splitEqually assigns 1/n to each of the given touchpoint IDs.
func splitEqually(ids []string) map[string]float64 {
	credits := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return credits
	}
	share := 1.0 / float64(len(ids))
	for _, id := range ids {
		credits[id] = share
	}
	return credits
}
