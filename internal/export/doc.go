// Package export renders reconstructed coroutine lifecycles as
// OpenTelemetry spans.
//
// The bridge is a pure formatting layer over the engine's snapshots: one
// span per coroutine, opened at its created event under the parent
// coroutine's span context, closed at its terminal event with explicit
// timestamps from the session clock. Suspension and resume events become
// span events. It does not reduce events, keep node state of its own, or
// evaluate expressions beyond delegating to the attributes evaluator.
package export
