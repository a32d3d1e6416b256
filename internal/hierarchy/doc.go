// Package hierarchy folds normalized lifecycle events into an immutable map
// of coroutine nodes, maintaining parent/child links, lifecycle state,
// scheduling assignment and timing totals.
//
// State machine:
//
//	CREATED ──→ ACTIVE ⇄ SUSPENDED
//	              │
//	              ├──→ WAITING_FOR_CHILDREN   (own body finished,
//	              │            │               children still running)
//	              ▼            ▼
//	        COMPLETED | CANCELLED | FAILED    (terminal)
//
// The distinction between "the coroutine's body finished" and "its job
// completed" is structural: a parent's job stays open until every child
// reaches a terminal state, so body-completed may park a node in
// WAITING_FOR_CHILDREN long before its terminal event arrives.
// job-state-changed is the authoritative source for that distinction and
// may override anything inferred locally.
//
// Apply is a pure function: it returns a fresh map sharing untouched nodes
// with its input and never mutates nodes in place. A concurrent reader
// holding an older map reference keeps observing a fully consistent
// snapshot. There is no error path; malformed references degrade to
// defensive lazy creation and unknown kinds are ignored.
package hierarchy
