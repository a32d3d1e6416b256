// Package wire defines the canonical event record emitted by instrumented
// coroutine runtimes and the normalizer that admits raw records into it.
//
// Runtimes disagree on field naming: newer ones send a canonical "kind",
// older ones a legacy UpperCamel "type". Normalize is the single admission
// boundary that resolves both into the canonical kind, so every downstream
// consumer can switch exhaustively over Kind plus a catch-all ignore branch.
//
// Unrecognized type names are preserved verbatim rather than dropped;
// deciding to ignore them is the consumer's call, not the normalizer's.
package wire
