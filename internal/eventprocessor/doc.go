// Package eventprocessor coordinates event processing and routes normalized
// records into per-session engine state.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│  Event source (NDJSON, Redis Streams,   │
//	│  HTTP ingest)                           │
//	└─────────────────┬───────────────────────┘
//	                  │ normalized records
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│  eventprocessor                         │  ← admission + routing
//	│  - Drops malformed records              │
//	│  - Skips unknown kinds                  │
//	│  - Resolves the session arena           │
//	└─────────┬───────────────────────────────┘
//	          │
//	          ├──→ session.Session ──→ hierarchy.Apply
//	          │                        (idempotent, per-seq)
//	          │
//	          └──→ SnapshotHandler ──→ span export
//	               (post-apply)
//
// Every failure mode degrades to a counted no-op: a single malformed event
// never halts processing of the stream.
package eventprocessor
