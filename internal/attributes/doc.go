// Package attributes provides expression evaluation for custom span
// attributes and deterministic trace identity for sessions.
//
// Expressions are evaluated against a coroutine's reconstructed state
// (label, scope, dispatcher, thread, lifecycle state, timing totals) using
// the expr language. Session ids of any shape are reduced to valid OTel
// trace ids by SHA-256 hashing.
package attributes
