package hierarchy

import (
	"sort"

	"coroviz/internal/wire"
)

// NodeMap is one session's snapshot of every coroutine observed so far.
// Treat it as immutable: Apply returns a new map and never writes through
// an existing reference.
type NodeMap map[string]*CoroutineNode

// Apply folds one normalized event into the snapshot and returns the
// resulting snapshot. The input map and its nodes are never mutated.
//
// Apply never fails: records without a coroutine id, unknown kinds and
// events for already-terminal coroutines reduce to a no-op returning the
// input map unchanged. References to never-seen ids trigger defensive lazy
// creation instead of discarding the event.
func Apply(rec *wire.Record, nodes NodeMap) NodeMap {
	if rec == nil || rec.CoroutineID == "" || !wire.KnownKind(rec.Kind) {
		return nodes
	}

	// Terminal states are monotonic: nothing moves a finished coroutine.
	if existing, ok := nodes[rec.CoroutineID]; ok && existing.State.Terminal() {
		return nodes
	}

	next := make(NodeMap, len(nodes)+1)
	for id, n := range nodes {
		next[id] = n
	}
	n := ensure(next, rec.CoroutineID, rec.TsNanos)

	switch rec.Kind {
	case wire.KindCreated:
		applyCreated(next, n, rec)

	case wire.KindStarted, wire.KindResumed:
		transition(n, StateActive, rec.TsNanos)
		n.CurrentSuspension = nil

	case wire.KindSuspended:
		if rec.Function != "" || rec.Location != "" || rec.Reason != "" {
			sp := SuspensionPoint{
				Function: rec.Function,
				Location: rec.Location,
				Reason:   rec.Reason,
				At:       rec.TsNanos,
			}
			n.SuspensionPoints = append(n.SuspensionPoints, sp)
			n.CurrentSuspension = &sp
		}
		transition(n, StateSuspended, rec.TsNanos)

	case wire.KindBodyCompleted:
		// The job is only done once every child is; with live children the
		// node parks in WAITING_FOR_CHILDREN, otherwise the state is left
		// alone and completion arrives via its own terminal event. The
		// flag survives so a child created after this event still parks
		// the parent.
		n.BodyCompleted = true
		if hasLiveChild(next, n) {
			transition(n, StateWaitingForChildren, rec.TsNanos)
		}

	case wire.KindWaitingForChildren:
		transition(n, StateWaitingForChildren, rec.TsNanos)
		// The explicit payload is authoritative over the locally
		// maintained active-children set.
		n.ActiveChildrenIDs = make(map[string]bool, len(rec.ActiveChildrenIDs))
		for _, id := range rec.ActiveChildrenIDs {
			n.ActiveChildrenIDs[id] = true
		}
		if rec.ActiveChildrenCount != nil {
			n.ActiveChildrenCount = *rec.ActiveChildrenCount
		} else {
			n.ActiveChildrenCount = len(n.ActiveChildrenIDs)
		}

	case wire.KindJobStateChanged:
		applyJobState(next, n, rec)

	case wire.KindCompleted:
		terminate(next, n, StateCompleted, rec.TsNanos)

	case wire.KindCancelled:
		terminate(next, n, StateCancelled, rec.TsNanos)

	case wire.KindFailed:
		n.FailureMessage = rec.Error
		terminate(next, n, StateFailed, rec.TsNanos)

	case wire.KindThreadAssigned:
		n.CurrentThreadID = rec.ThreadID
		n.CurrentThreadName = rec.ThreadName

	case wire.KindDispatcherSelected:
		n.DispatcherID = rec.DispatcherID
		n.DispatcherName = rec.DispatcherName

	case wire.KindJobCancellationRequested:
		n.CancellationRequested = true

	case wire.KindJobJoinRequested:
		n.PendingJoins++

	case wire.KindJobJoinCompleted:
		if n.PendingJoins > 0 {
			n.PendingJoins--
		}

	case wire.KindDeferredCompleted:
		n.HasDeferredResult = true

	case wire.KindDeferredAwaited:
		if rec.AwaiterID != "" {
			n.AwaitedBy = append(n.AwaitedBy, rec.AwaiterID)
		}
	}

	return next
}

// ensure returns a mutable clone of the node stored in next, defensively
// creating a placeholder when the id has never been seen.
func ensure(next NodeMap, id string, ts uint64) *CoroutineNode {
	if existing, ok := next[id]; ok {
		c := existing.clone()
		next[id] = c
		return c
	}
	n := &CoroutineNode{
		ID:                id,
		State:             StateCreated,
		CreatedAt:         ts,
		ActiveChildrenIDs: map[string]bool{},
		lastTransition:    ts,
	}
	adoptOrphans(next, n)
	next[id] = n
	return n
}

// adoptOrphans registers children that arrived before this node and had no
// parent to attach to at the time, so both creation orders converge on the
// same hierarchy. Adopted children keep creation order: time, then id.
func adoptOrphans(next NodeMap, n *CoroutineNode) {
	var orphans []*CoroutineNode
	for id, child := range next {
		if id == n.ID || child.ParentID != n.ID {
			continue
		}
		orphans = append(orphans, child)
	}
	if len(orphans) == 0 {
		return
	}
	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].CreatedAt != orphans[j].CreatedAt {
			return orphans[i].CreatedAt < orphans[j].CreatedAt
		}
		return orphans[i].ID < orphans[j].ID
	})
	for _, child := range orphans {
		n.ChildrenIDs = append(n.ChildrenIDs, child.ID)
		switch child.State {
		case StateCreated, StateActive, StateSuspended:
			n.ActiveChildrenIDs[child.ID] = true
		}
	}
	n.ActiveChildrenCount = len(n.ActiveChildrenIDs)
}

func applyCreated(next NodeMap, n *CoroutineNode, rec *wire.Record) {
	if rec.JobID != "" {
		n.JobID = rec.JobID
	}
	if rec.ScopeID != "" {
		n.ScopeID = rec.ScopeID
	}
	if rec.Label != "" {
		n.Label = rec.Label
	}
	n.CreatedAt = rec.TsNanos

	// parentId is immutable once set.
	if n.ParentID == "" && rec.ParentID != "" {
		n.ParentID = rec.ParentID
	}
	if n.ParentID == "" || n.ParentID == n.ID {
		return
	}

	// Register with the parent when it is already known. An unresolved
	// parent id is not an error: the node stays in the map as a temporary
	// root until its parent appears and adopts it in adoptOrphans.
	parent, ok := next[n.ParentID]
	if !ok {
		return
	}
	for _, id := range parent.ChildrenIDs {
		if id == n.ID {
			return
		}
	}
	pc := parent.clone()
	pc.ChildrenIDs = append(pc.ChildrenIDs, n.ID)
	pc.ActiveChildrenIDs[n.ID] = true
	pc.ActiveChildrenCount = len(pc.ActiveChildrenIDs)
	if pc.BodyCompleted && !pc.State.Terminal() && pc.State != StateWaitingForChildren {
		transition(pc, StateWaitingForChildren, rec.TsNanos)
	}
	next[n.ParentID] = pc
}

func applyJobState(next NodeMap, n *CoroutineNode, rec *wire.Record) {
	isActive := rec.IsActive != nil && *rec.IsActive
	isCompleted := rec.IsCompleted != nil && *rec.IsCompleted
	isCancelled := rec.IsCancelled != nil && *rec.IsCancelled

	// Authoritative job view, with fixed flag priority.
	switch {
	case isCancelled:
		terminate(next, n, StateCancelled, rec.TsNanos)
	case isCompleted:
		terminate(next, n, StateCompleted, rec.TsNanos)
	case isActive && n.ActiveChildrenCount > 0:
		transition(n, StateWaitingForChildren, rec.TsNanos)
	case isActive:
		transition(n, StateActive, rec.TsNanos)
	}
}

// transition moves the node to a new state, folding the time spent in the
// previous one into the running totals.
func transition(n *CoroutineNode, to State, ts uint64) {
	accumulate(n, ts)
	n.State = to
}

func accumulate(n *CoroutineNode, ts uint64) {
	if ts > n.lastTransition {
		d := ts - n.lastTransition
		switch n.State {
		case StateActive:
			n.ActiveTime += d
		case StateSuspended:
			n.SuspendedTime += d
		}
	}
	n.lastTransition = ts
}

// terminate stamps a terminal state and detaches the node from its parent's
// active-children set.
func terminate(next NodeMap, n *CoroutineNode, to State, ts uint64) {
	transition(n, to, ts)
	n.CompletedAt = ts
	n.ActiveChildrenIDs = map[string]bool{}
	n.ActiveChildrenCount = 0
	n.CurrentThreadID = ""
	n.CurrentThreadName = ""
	n.CurrentSuspension = nil

	if n.ParentID == "" {
		return
	}
	parent, ok := next[n.ParentID]
	if !ok || !parent.ActiveChildrenIDs[n.ID] {
		return
	}
	pc := parent.clone()
	delete(pc.ActiveChildrenIDs, n.ID)
	if pc.ActiveChildrenCount > 0 {
		pc.ActiveChildrenCount--
	}
	next[n.ParentID] = pc
}

func hasLiveChild(next NodeMap, n *CoroutineNode) bool {
	for _, id := range n.ChildrenIDs {
		child, ok := next[id]
		if !ok {
			continue
		}
		switch child.State {
		case StateCreated, StateActive, StateSuspended:
			return true
		}
	}
	return false
}
