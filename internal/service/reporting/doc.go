// Package reporting glues the pure attribution engine to storage: it loads
// conversions and raw events, runs the engine, persists results with
// replace-on-conflict semantics, and keeps campaign ROI summaries current.
//
// The service layer owns the "feed each result into the aggregator" step so
// the engine itself can stay stateless. Stored results are keyed on
// (conversion, model); re-attribution replaces rather than adds, which makes
// retries and at-least-once queue delivery safe.
//
// Repository implementations live in repository/postgres. Handlers should
// depend on this package, never the other way around.
package reporting
