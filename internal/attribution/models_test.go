package attribution

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
)

const creditTolerance = 1e-9

var testConversionTime = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// tpAt builds a touchpoint the given number of days before the test
// conversion time.
func tpAt(id string, daysBefore float64) domain.Touchpoint {
	return domain.Touchpoint{
		ID:         id,
		CampaignID: "camp-1",
		Channel:    domain.ChannelPixel,
		OccurredAt: testConversionTime.Add(-time.Duration(daysBefore * 24 * float64(time.Hour))),
	}
}

func testConversion(value float64) domain.Conversion {
	return domain.Conversion{
		ID:         "conv-1",
		CampaignID: "camp-1",
		OccurredAt: testConversionTime,
		Value:      value,
	}
}

func creditSum(credits map[string]float64) float64 {
	var sum float64
	for _, c := range credits {
		sum += c
	}
	return sum
}

func TestAllModels_CreditsSumToOne(t *testing.T) {
	touchpointSets := map[string][]domain.Touchpoint{
		"single":   {tpAt("a", 1)},
		"pair":     {tpAt("a", 10), tpAt("b", 1)},
		"five":     {tpAt("a", 20), tpAt("b", 15), tpAt("c", 10), tpAt("d", 5), tpAt("e", 1)},
		"tied":     {tpAt("a", 5), tpAt("b", 5), tpAt("c", 5)},
		"same-day": {tpAt("a", 0), tpAt("b", 0.5)},
	}
	conv := testConversion(100)
	cfg := DefaultConfig()

	for _, name := range domain.AllModels {
		fn, ok := LookupModel(name)
		if !ok {
			t.Fatalf("model %s not registered", name)
		}
		for setName, tps := range touchpointSets {
			sortTouchpoints(tps)
			credits := fn(tps, conv, cfg)
			if len(credits) == 0 {
				t.Errorf("%s/%s: expected credits, got none", name, setName)
				continue
			}
			if sum := creditSum(credits); math.Abs(sum-1.0) > creditTolerance {
				t.Errorf("%s/%s: credits sum to %v, want 1.0", name, setName, sum)
			}
		}
	}
}

func TestAllModels_EmptyTouchpointsYieldEmptyCredits(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()
	for _, name := range domain.AllModels {
		fn, _ := LookupModel(name)
		credits := fn(nil, conv, cfg)
		if len(credits) != 0 {
			t.Errorf("%s: empty input produced %d credits", name, len(credits))
		}
	}
}

func TestFirstTouch(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()

	t.Run("earliest wins all", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("early", 20), tpAt("mid", 10), tpAt("late", 1)}
		sortTouchpoints(tps)
		credits := firstTouch(tps, conv, cfg)
		if credits["early"] != 1.0 {
			t.Errorf("earliest credit = %v, want 1.0", credits["early"])
		}
	})

	t.Run("ties split equally", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("a", 20), tpAt("b", 20), tpAt("late", 1)}
		sortTouchpoints(tps)
		credits := firstTouch(tps, conv, cfg)
		if credits["a"] != 0.5 || credits["b"] != 0.5 {
			t.Errorf("tied credits = %v/%v, want 0.5/0.5", credits["a"], credits["b"])
		}
		if _, ok := credits["late"]; ok {
			t.Error("late touchpoint should receive no credit")
		}
	})
}

func TestLastTouch(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()

	t.Run("latest wins all", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("early", 20), tpAt("late", 1)}
		sortTouchpoints(tps)
		credits := lastTouch(tps, conv, cfg)
		if credits["late"] != 1.0 {
			t.Errorf("latest credit = %v, want 1.0", credits["late"])
		}
	})

	t.Run("ties split equally", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("early", 20), tpAt("x", 1), tpAt("y", 1)}
		sortTouchpoints(tps)
		credits := lastTouch(tps, conv, cfg)
		if credits["x"] != 0.5 || credits["y"] != 0.5 {
			t.Errorf("tied credits = %v/%v, want 0.5/0.5", credits["x"], credits["y"])
		}
	})
}

// First-touch and last-touch must give the same answer regardless of input
// order, since the pipeline re-sorts by timestamp.
func TestFirstLastTouch_OrderInsensitive(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()

	forward := []domain.Touchpoint{tpAt("a", 20), tpAt("b", 10), tpAt("c", 1)}
	reversed := []domain.Touchpoint{tpAt("c", 1), tpAt("b", 10), tpAt("a", 20)}
	sortTouchpoints(forward)
	sortTouchpoints(reversed)

	for _, name := range []domain.ModelName{domain.ModelFirstTouch, domain.ModelLastTouch} {
		fn, _ := LookupModel(name)
		got1 := fn(forward, conv, cfg)
		got2 := fn(reversed, conv, cfg)
		for id, c := range got1 {
			if got2[id] != c {
				t.Errorf("%s: order-dependent credit for %s: %v vs %v", name, id, c, got2[id])
			}
		}
	}
}

func TestLinear_EqualShares(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()

	for _, n := range []int{1, 2, 5, 100} {
		tps := make([]domain.Touchpoint, n)
		for i := range tps {
			tps[i] = tpAt(fmt.Sprintf("tp-%03d", i), float64(i)/10)
		}
		sortTouchpoints(tps)
		credits := linear(tps, conv, cfg)
		want := 1.0 / float64(n)
		for id, c := range credits {
			if math.Abs(c-want) > creditTolerance {
				t.Errorf("n=%d: credit[%s] = %v, want %v", n, id, c, want)
			}
		}
		if len(credits) != n {
			t.Errorf("n=%d: got %d credits", n, len(credits))
		}
	}
}

func TestTimeDecay(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()

	t.Run("closer touchpoint gets more credit", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("far", 10), tpAt("near", 1)}
		sortTouchpoints(tps)
		credits := timeDecay(tps, conv, cfg)
		if credits["near"] <= credits["far"] {
			t.Errorf("near=%v should exceed far=%v", credits["near"], credits["far"])
		}
	})

	t.Run("exact weights at 7d half-life", func(t *testing.T) {
		// weight_far = 2^(-10/7), weight_near = 2^(-1/7), normalized.
		tps := []domain.Touchpoint{tpAt("far", 10), tpAt("near", 1)}
		sortTouchpoints(tps)
		credits := timeDecay(tps, conv, cfg)
		wFar := math.Exp2(-10.0 / 7.0)
		wNear := math.Exp2(-1.0 / 7.0)
		wantFar := wFar / (wFar + wNear)
		wantNear := wNear / (wFar + wNear)
		if math.Abs(credits["far"]-wantFar) > creditTolerance {
			t.Errorf("far credit = %v, want %v", credits["far"], wantFar)
		}
		if math.Abs(credits["near"]-wantNear) > creditTolerance {
			t.Errorf("near credit = %v, want %v", credits["near"], wantNear)
		}
	})

	t.Run("credit strictly decreases with distance", func(t *testing.T) {
		tps := []domain.Touchpoint{
			tpAt("d1", 1), tpAt("d3", 3), tpAt("d7", 7), tpAt("d14", 14), tpAt("d28", 28),
		}
		sortTouchpoints(tps)
		credits := timeDecay(tps, conv, cfg)
		order := []string{"d1", "d3", "d7", "d14", "d28"}
		for i := 1; i < len(order); i++ {
			if credits[order[i]] >= credits[order[i-1]] {
				t.Errorf("credit[%s]=%v not strictly below credit[%s]=%v",
					order[i], credits[order[i]], order[i-1], credits[order[i-1]])
			}
		}
	})

	t.Run("one half-life means half the weight", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("old", 7), tpAt("new", 0)}
		sortTouchpoints(tps)
		credits := timeDecay(tps, conv, cfg)
		ratio := credits["old"] / credits["new"]
		if math.Abs(ratio-0.5) > creditTolerance {
			t.Errorf("weight ratio across one half-life = %v, want 0.5", ratio)
		}
	})
}

func TestPositionBased(t *testing.T) {
	conv := testConversion(100)
	cfg := DefaultConfig()

	t.Run("single touchpoint gets everything", func(t *testing.T) {
		credits := positionBased([]domain.Touchpoint{tpAt("only", 5)}, conv, cfg)
		if credits["only"] != 1.0 {
			t.Errorf("single credit = %v, want 1.0", credits["only"])
		}
	})

	// Regression contract: with exactly two touchpoints the first keeps its
	// base share and the last absorbs the middle bucket, i.e. 40/60 under
	// the default 40/40/20 split.
	t.Run("two touchpoints split 40/60", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("first", 10), tpAt("last", 1)}
		sortTouchpoints(tps)
		credits := positionBased(tps, conv, cfg)
		if math.Abs(credits["first"]-0.4) > creditTolerance {
			t.Errorf("first credit = %v, want 0.4", credits["first"])
		}
		if math.Abs(credits["last"]-0.6) > creditTolerance {
			t.Errorf("last credit = %v, want 0.6", credits["last"])
		}
	})

	t.Run("default 40/40/20 with middle split equally", func(t *testing.T) {
		tps := []domain.Touchpoint{tpAt("first", 20), tpAt("m1", 12), tpAt("m2", 8), tpAt("last", 1)}
		sortTouchpoints(tps)
		credits := positionBased(tps, conv, cfg)
		if math.Abs(credits["first"]-0.4) > creditTolerance || math.Abs(credits["last"]-0.4) > creditTolerance {
			t.Errorf("endpoint credits = %v/%v, want 0.4/0.4", credits["first"], credits["last"])
		}
		if math.Abs(credits["m1"]-0.1) > creditTolerance || math.Abs(credits["m2"]-0.1) > creditTolerance {
			t.Errorf("middle credits = %v/%v, want 0.1/0.1", credits["m1"], credits["m2"])
		}
	})

	t.Run("unnormalized weights behave like their ratio", func(t *testing.T) {
		custom := cfg
		custom.PositionFirst, custom.PositionLast, custom.PositionMiddle = 4, 4, 2
		tps := []domain.Touchpoint{tpAt("first", 20), tpAt("mid", 10), tpAt("last", 1)}
		sortTouchpoints(tps)
		credits := positionBased(tps, conv, custom)
		if math.Abs(credits["first"]-0.4) > creditTolerance {
			t.Errorf("first credit = %v, want 0.4", credits["first"])
		}
		if sum := creditSum(credits); math.Abs(sum-1.0) > creditTolerance {
			t.Errorf("credits sum to %v, want 1.0", sum)
		}
	})
}
