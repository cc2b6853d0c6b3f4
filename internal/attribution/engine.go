package attribution

import (
	"time"

	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/pkg/logger"
)

// Engine is the public entry point of the attribution pipeline. It is
// stateless apart from its config and safe for concurrent use; callers may
// invoke it inline when a conversion is recorded or fan it out across a
// worker pool for backfill runs.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given config. Zero-valued fields are
// replaced with the DefaultConfig values so a partially filled config from
// YAML stays usable.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = def.WindowDays
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = def.DedupWindow
	}
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = def.HalfLife
	}
	if cfg.PositionFirst <= 0 && cfg.PositionLast <= 0 && cfg.PositionMiddle <= 0 {
		cfg.PositionFirst = def.PositionFirst
		cfg.PositionLast = def.PositionLast
		cfg.PositionMiddle = def.PositionMiddle
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// AttributeConversion runs the full pipeline for one conversion: dedupe the
// raw events, apply the lookback window, then run every requested model and
// package a result per model.
//
// Failure semantics: an unknown model name fails the whole call with
// *UnknownModelError before any model runs, and a negative value or missing
// timestamp fails with *domain.InvalidConversionError. There is no partial
// success; either all requested models are computed or none are. Zero
// surviving touchpoints is not an error: every model returns an empty credit
// map and the condition is logged as a tracking-gap signal.
func (e *Engine) AttributeConversion(conv domain.Conversion, rawEvents []domain.RawEvent, modelNames []domain.ModelName) (map[domain.ModelName]domain.AttributionResult, error) {
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	if len(modelNames) == 0 {
		modelNames = domain.AllModels
	}

	// Resolve every model up front so no partial results leak.
	fns := make(map[domain.ModelName]ModelFunc, len(modelNames))
	for _, name := range modelNames {
		fn, ok := LookupModel(name)
		if !ok {
			return nil, &UnknownModelError{Name: name, Valid: domain.AllModels}
		}
		fns[name] = fn
	}

	tps := Dedupe(rawEvents, e.cfg.DedupWindow)
	tps = FilterWindow(tps, conv, e.cfg.WindowDays)
	if len(tps) == 0 {
		logger.Warn("no touchpoints survived windowing/dedup",
			"conversion_id", conv.ID,
			"campaign_id", conv.CampaignID,
			"raw_events", len(rawEvents))
	}

	now := time.Now().UTC()
	results := make(map[domain.ModelName]domain.AttributionResult, len(fns))
	for name, fn := range fns {
		credits := fn(tps, conv, e.cfg)
		revenue := make(map[string]float64, len(credits))
		for id, c := range credits {
			revenue[id] = c * conv.Value
		}
		results[name] = domain.AttributionResult{
			ConversionID:    conv.ID,
			CampaignID:      conv.CampaignID,
			Model:           name,
			Credits:         credits,
			Revenue:         revenue,
			ConversionValue: conv.Value,
			ComputedAt:      now,
		}
	}
	return results, nil
}
