// Package attribution implements the multi-model attribution engine: it
// turns raw touch-point events for a conversion into per-touchpoint credit
// fractions and per-campaign ROI figures.
//
// The engine is a pure, stateless computation over the inputs it is given.
// It holds no long-lived mutable state and performs no I/O; all data
// (touchpoints, conversion, campaign spend) is supplied by the caller up
// front. Every exported operation is deterministic and safe to run
// concurrently across conversions. Re-running AttributeConversion with the
// same inputs produces identical output, so at-least-once delivery from an
// upstream queue is safe as long as stored results are keyed on
// (conversion, model) and a repeat is treated as a replace.
//
// Persistence of touchpoints, conversions, and summaries lives in
// repository/postgres; feeding results into stored summaries is the job of
// service/reporting and the backfill worker, not this package.
package attribution
