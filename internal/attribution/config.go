package attribution

import "time"

// Config holds the tunable parameters of the attribution engine.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// WindowDays is the attribution lookback window. Touchpoints older than
	// this many days before the conversion are excluded before weighting.
	WindowDays int

	// DedupWindow bounds how far apart two identical events (same campaign,
	// channel, payload hash) may fire and still be collapsed into one
	// touchpoint. Guards against double-firing pixels.
	DedupWindow time.Duration

	// HalfLife controls the time-decay model: a touchpoint's weight halves
	// for every HalfLife of distance from the conversion.
	HalfLife time.Duration

	// Position-based bucket weights. Must be positive and are normalized by
	// the model, so 40/40/20 and 4/4/2 behave identically.
	PositionFirst  float64
	PositionLast   float64
	PositionMiddle float64
}

// DefaultConfig returns the production defaults: 30-day window, 1-hour dedup
// window, 7-day half-life, 40/40/20 position split.
func DefaultConfig() Config {
	return Config{
		WindowDays:     30,
		DedupWindow:    time.Hour,
		HalfLife:       7 * 24 * time.Hour,
		PositionFirst:  0.4,
		PositionLast:   0.4,
		PositionMiddle: 0.2,
	}
}
