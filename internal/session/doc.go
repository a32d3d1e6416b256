// Package session owns the per-session engine state.
//
// Each session gets exactly one arena: a Session created on its first event
// and discarded only by Manager.Delete. Sessions are fully isolated from
// one another and hold no global state.
//
// Session serializes event application behind a mutex so the surrounding
// transport may deliver from any goroutine, tracks applied sequence numbers
// for idempotent redelivery, and keeps the per-coroutine event log that
// timeline queries replay. Snapshot returns the current immutable node map;
// readers holding an older reference keep seeing a consistent snapshot.
//
// Manager provides command-query separation over the session table:
//
// Queries (read-only):
//   - Get(id) - Retrieve a session
//   - IDs() - List known session ids
//
// Commands (mutations):
//   - GetOrCreate(id) - Atomic get-or-create
//   - Delete(id) - Whole-session teardown
package session
