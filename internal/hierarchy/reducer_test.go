package hierarchy

import (
	"testing"

	"coroviz/internal/wire"
)

func rec(kind, id string, ts uint64) *wire.Record {
	return &wire.Record{SessionID: "s1", Kind: kind, CoroutineID: id, TsNanos: ts}
}

func created(id, parent string, ts uint64) *wire.Record {
	r := rec(wire.KindCreated, id, ts)
	r.ParentID = parent
	r.JobID = "job-" + id
	return r
}

func applyAll(nodes NodeMap, recs ...*wire.Record) NodeMap {
	for _, r := range recs {
		nodes = Apply(r, nodes)
	}
	return nodes
}

func TestApply_CreatedBuildsHierarchy(t *testing.T) {
	nodes := applyAll(NodeMap{},
		created("p", "", 0),
		created("a", "p", 10),
		created("b", "p", 20),
	)

	p := nodes["p"]
	if p == nil {
		t.Fatal("parent not created")
	}
	if len(p.ChildrenIDs) != 2 || p.ChildrenIDs[0] != "a" || p.ChildrenIDs[1] != "b" {
		t.Errorf("ChildrenIDs = %v, want [a b] in arrival order", p.ChildrenIDs)
	}
	if p.ActiveChildrenCount != 2 || !p.ActiveChildrenIDs["a"] || !p.ActiveChildrenIDs["b"] {
		t.Errorf("active children = %v (count %d), want both live", p.ActiveChildrenIDs, p.ActiveChildrenCount)
	}
	if nodes["a"].ParentID != "p" {
		t.Errorf("child parent = %q, want p", nodes["a"].ParentID)
	}
	if nodes["a"].State != StateCreated {
		t.Errorf("child state = %v, want CREATED", nodes["a"].State)
	}
}

func TestApply_SnapshotImmutability(t *testing.T) {
	before := applyAll(NodeMap{}, created("p", "", 0))
	pBefore := before["p"]

	after := Apply(created("a", "p", 10), before)

	if len(before) != 1 {
		t.Errorf("old snapshot grew to %d entries", len(before))
	}
	if pBefore.ActiveChildrenCount != 0 || len(pBefore.ChildrenIDs) != 0 {
		t.Error("node in old snapshot was mutated in place")
	}
	if after["p"] == pBefore {
		t.Error("touched node must be cloned, not shared")
	}
	if len(after) != 2 {
		t.Errorf("new snapshot has %d entries, want 2", len(after))
	}
}

func TestApply_TerminalStatesAreMonotonic(t *testing.T) {
	for _, terminal := range []string{wire.KindCompleted, wire.KindCancelled, wire.KindFailed} {
		nodes := applyAll(NodeMap{},
			created("c", "", 0),
			rec(wire.KindStarted, "c", 1),
			rec(terminal, "c", 100),
		)
		want := nodes["c"].State

		after := applyAll(nodes,
			rec(wire.KindResumed, "c", 200),
			rec(wire.KindStarted, "c", 201),
			rec(wire.KindSuspended, "c", 202),
			rec(wire.KindJobStateChanged, "c", 203),
		)
		if after["c"].State != want {
			t.Errorf("%s: state regressed from %v to %v", terminal, want, after["c"].State)
		}
		if after["c"].CompletedAt != 100 {
			t.Errorf("%s: completedAt = %d, want 100", terminal, after["c"].CompletedAt)
		}
	}
}

func TestApply_DefensiveLazyCreation(t *testing.T) {
	nodes := Apply(rec(wire.KindResumed, "ghost", 50), NodeMap{})

	n := nodes["ghost"]
	if n == nil {
		t.Fatal("resumed on an unseen id must create the node, not drop the event")
	}
	if n.State != StateActive {
		t.Errorf("state = %v, want ACTIVE", n.State)
	}
	if n.CreatedAt != 50 {
		t.Errorf("createdAt = %d, want first-reference timestamp", n.CreatedAt)
	}
}

func TestApply_WaitingForChildrenFlow(t *testing.T) {
	nodes := applyAll(NodeMap{},
		created("A", "", 0),
		rec(wire.KindStarted, "A", 1),
		created("B", "A", 2),
		created("C", "A", 3),
		rec(wire.KindBodyCompleted, "A", 10),
	)
	if nodes["A"].State != StateWaitingForChildren {
		t.Fatalf("A.state = %v, want WAITING_FOR_CHILDREN", nodes["A"].State)
	}

	nodes = applyAll(nodes,
		rec(wire.KindCompleted, "B", 20),
		rec(wire.KindCompleted, "C", 30),
	)
	if nodes["A"].ActiveChildrenCount != 0 {
		t.Errorf("active children = %d after both completed, want 0", nodes["A"].ActiveChildrenCount)
	}
	if nodes["A"].State != StateWaitingForChildren {
		t.Errorf("A.state = %v before job closes, want WAITING_FOR_CHILDREN", nodes["A"].State)
	}

	done := true
	jsc := rec(wire.KindJobStateChanged, "A", 40)
	jsc.IsCompleted = &done
	nodes = Apply(jsc, nodes)
	if nodes["A"].State != StateCompleted {
		t.Errorf("A.state = %v after job completion, want COMPLETED", nodes["A"].State)
	}
}

func TestApply_BodyCompletedBeforeChildrenCreated(t *testing.T) {
	nodes := applyAll(NodeMap{},
		created("A", "", 0),
		rec(wire.KindBodyCompleted, "A", 1),
	)
	// No live child yet: state left unchanged.
	if nodes["A"].State == StateWaitingForChildren {
		t.Fatal("A must not wait for children it has none of")
	}

	nodes = applyAll(nodes,
		created("B", "A", 2),
		created("C", "A", 3),
	)
	if nodes["A"].State != StateWaitingForChildren {
		t.Errorf("A.state = %v once children exist, want WAITING_FOR_CHILDREN", nodes["A"].State)
	}
}

func TestApply_BodyCompletedWithoutLiveChildren(t *testing.T) {
	nodes := applyAll(NodeMap{},
		created("A", "", 0),
		rec(wire.KindStarted, "A", 1),
		created("B", "A", 2),
		rec(wire.KindCompleted, "B", 3),
		rec(wire.KindBodyCompleted, "A", 10),
	)
	if nodes["A"].State != StateActive {
		t.Errorf("A.state = %v, want ACTIVE left unchanged", nodes["A"].State)
	}
}

func TestApply_ExplicitWaitingPayloadIsAuthoritative(t *testing.T) {
	nodes := applyAll(NodeMap{},
		created("A", "", 0),
		created("B", "A", 1),
		created("C", "A", 2),
	)

	wfc := rec(wire.KindWaitingForChildren, "A", 10)
	wfc.ActiveChildrenIDs = []string{"C"}
	count := 1
	wfc.ActiveChildrenCount = &count
	nodes = Apply(wfc, nodes)

	a := nodes["A"]
	if a.State != StateWaitingForChildren {
		t.Errorf("state = %v, want WAITING_FOR_CHILDREN", a.State)
	}
	if len(a.ActiveChildrenIDs) != 1 || !a.ActiveChildrenIDs["C"] {
		t.Errorf("active set = %v, want payload to overwrite the local set", a.ActiveChildrenIDs)
	}
	if a.ActiveChildrenCount != 1 {
		t.Errorf("count = %d, want 1", a.ActiveChildrenCount)
	}
}

func TestApply_JobStateChangedPriority(t *testing.T) {
	tr, fa := true, false
	tests := []struct {
		name                             string
		isActive, isCompleted, isCancelled *bool
		activeChildren                   int
		want                             State
	}{
		{"cancelled beats completed", &tr, &tr, &tr, 0, StateCancelled},
		{"completed beats active", &tr, &tr, &fa, 0, StateCompleted},
		{"active with children waits", &tr, &fa, &fa, 2, StateWaitingForChildren},
		{"active without children runs", &tr, &fa, &fa, 0, StateActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := applyAll(NodeMap{}, created("A", "", 0))
			for i := 0; i < tt.activeChildren; i++ {
				nodes = Apply(created(string(rune('a'+i)), "A", uint64(i+1)), nodes)
			}

			jsc := rec(wire.KindJobStateChanged, "A", 100)
			jsc.IsActive = tt.isActive
			jsc.IsCompleted = tt.isCompleted
			jsc.IsCancelled = tt.isCancelled
			nodes = Apply(jsc, nodes)

			if nodes["A"].State != tt.want {
				t.Errorf("state = %v, want %v", nodes["A"].State, tt.want)
			}
		})
	}
}

func TestApply_ThreadAndDispatcherAssignment(t *testing.T) {
	ta := rec(wire.KindThreadAssigned, "c", 5)
	ta.ThreadID = "t-1"
	ta.ThreadName = "worker-1"
	ds := rec(wire.KindDispatcherSelected, "c", 6)
	ds.DispatcherID = "d-1"
	ds.DispatcherName = "Dispatchers.IO"

	nodes := applyAll(NodeMap{}, created("c", "", 0), rec(wire.KindStarted, "c", 1), ta, ds)

	n := nodes["c"]
	if n.CurrentThreadName != "worker-1" || n.DispatcherName != "Dispatchers.IO" {
		t.Errorf("assignment not recorded: %+v", n)
	}
	if n.State != StateActive {
		t.Errorf("state = %v, assignments must not change state", n.State)
	}

	nodes = Apply(rec(wire.KindCompleted, "c", 10), nodes)
	if nodes["c"].CurrentThreadID != "" || nodes["c"].CurrentThreadName != "" {
		t.Error("thread fields must clear once the coroutine is no longer active")
	}
	if nodes["c"].DispatcherName != "Dispatchers.IO" {
		t.Error("dispatcher assignment should survive completion")
	}
}

func TestApply_SuspensionHistory(t *testing.T) {
	s1 := rec(wire.KindSuspended, "c", 100)
	s1.Function = "delay"
	s1.Reason = "timed delay"
	s2 := rec(wire.KindSuspended, "c", 300)
	s2.Function = "await"
	s2.Reason = "join"

	nodes := applyAll(NodeMap{},
		created("c", "", 0),
		rec(wire.KindStarted, "c", 0),
		s1,
		rec(wire.KindResumed, "c", 200),
		s2,
	)

	n := nodes["c"]
	if len(n.SuspensionPoints) != 2 {
		t.Fatalf("suspension points = %d, want 2", len(n.SuspensionPoints))
	}
	if n.SuspensionPoints[0].Function != "delay" || n.SuspensionPoints[1].Function != "await" {
		t.Errorf("history order wrong: %+v", n.SuspensionPoints)
	}
	if n.CurrentSuspension == nil || n.CurrentSuspension.Function != "await" {
		t.Error("current suspension should track the open one")
	}

	nodes = Apply(rec(wire.KindResumed, "c", 400), nodes)
	if nodes["c"].CurrentSuspension != nil {
		t.Error("resume must clear the suspension marker")
	}
}

func TestApply_TimeAccumulation(t *testing.T) {
	nodes := applyAll(NodeMap{},
		created("c", "", 0),
		rec(wire.KindStarted, "c", 0),
		rec(wire.KindSuspended, "c", 100),
		rec(wire.KindResumed, "c", 150),
		rec(wire.KindCompleted, "c", 200),
	)

	n := nodes["c"]
	if n.ActiveTime != 150 {
		t.Errorf("activeTime = %d, want 150", n.ActiveTime)
	}
	if n.SuspendedTime != 50 {
		t.Errorf("suspendedTime = %d, want 50", n.SuspendedTime)
	}
	if n.CompletedAt != 200 {
		t.Errorf("completedAt = %d, want 200", n.CompletedAt)
	}
}

func TestApply_UnknownKindIsNoOp(t *testing.T) {
	nodes := applyAll(NodeMap{}, created("c", "", 0))
	after := Apply(rec("SomeFutureEvent", "c", 10), nodes)
	if len(after) != len(nodes) || after["c"] != nodes["c"] {
		t.Error("unknown kinds must leave the snapshot untouched")
	}
}

func TestApply_ParentIDImmutable(t *testing.T) {
	first := created("c", "p1", 0)
	second := created("c", "p2", 10)
	nodes := applyAll(NodeMap{}, created("p1", "", 0), created("p2", "", 0), first, second)

	if nodes["c"].ParentID != "p1" {
		t.Errorf("parentId = %q, want the original p1", nodes["c"].ParentID)
	}
}

func TestApply_OrderToleranceConverges(t *testing.T) {
	childFirst := applyAll(NodeMap{},
		created("child", "P", 5),
		created("P", "", 10),
		rec(wire.KindBodyCompleted, "P", 20),
	)
	parentFirst := applyAll(NodeMap{},
		created("P", "", 10),
		created("child", "P", 5),
		rec(wire.KindBodyCompleted, "P", 20),
	)

	for name, nodes := range map[string]NodeMap{"child first": childFirst, "parent first": parentFirst} {
		if nodes["child"] == nil || nodes["P"] == nil {
			t.Fatalf("%s: both nodes must exist", name)
		}
		if nodes["child"].ParentID != "P" {
			t.Errorf("%s: child.parentId = %q, want P", name, nodes["child"].ParentID)
		}
		p := nodes["P"]
		if len(p.ChildrenIDs) != 1 || p.ChildrenIDs[0] != "child" {
			t.Errorf("%s: P.childrenIds = %v, want [child]", name, p.ChildrenIDs)
		}
		if p.ActiveChildrenCount != 1 || !p.ActiveChildrenIDs["child"] {
			t.Errorf("%s: active children = %v (count %d), want child live",
				name, p.ActiveChildrenIDs, p.ActiveChildrenCount)
		}
		if p.State != StateWaitingForChildren {
			t.Errorf("%s: P state = %v, want WAITING_FOR_CHILDREN", name, p.State)
		}
	}
}

func TestApply_AdoptedChildrenDriveJobState(t *testing.T) {
	active := true
	js := rec(wire.KindJobStateChanged, "P", 30)
	js.IsActive = &active

	nodes := applyAll(NodeMap{},
		created("child", "P", 5),
		created("P", "", 10),
		js,
	)

	if nodes["P"].State != StateWaitingForChildren {
		t.Errorf("P state = %v, want WAITING_FOR_CHILDREN while the adopted child lives", nodes["P"].State)
	}
}

func TestApply_BookkeepingKinds(t *testing.T) {
	da := rec(wire.KindDeferredAwaited, "c", 4)
	da.AwaiterID = "root"
	fail := rec(wire.KindFailed, "c", 9)
	fail.Error = "boom"

	nodes := applyAll(NodeMap{},
		created("c", "", 0),
		rec(wire.KindJobCancellationRequested, "c", 1),
		rec(wire.KindJobJoinRequested, "c", 2),
		rec(wire.KindDeferredCompleted, "c", 3),
		da,
		rec(wire.KindJobJoinCompleted, "c", 5),
	)

	n := nodes["c"]
	if !n.CancellationRequested || !n.HasDeferredResult {
		t.Errorf("flags not recorded: %+v", n)
	}
	if n.PendingJoins != 0 {
		t.Errorf("pendingJoins = %d, want 0 after request/complete pair", n.PendingJoins)
	}
	if len(n.AwaitedBy) != 1 || n.AwaitedBy[0] != "root" {
		t.Errorf("awaitedBy = %v, want [root]", n.AwaitedBy)
	}
	if n.State != StateCreated {
		t.Errorf("state = %v, bookkeeping kinds must not change state", n.State)
	}

	nodes = Apply(fail, nodes)
	if nodes["c"].State != StateFailed || nodes["c"].FailureMessage != "boom" {
		t.Errorf("failure not recorded: %+v", nodes["c"])
	}
}

func TestApply_MalformedReferencesNeverPanic(t *testing.T) {
	nodes := NodeMap{}
	nodes = Apply(nil, nodes)
	nodes = Apply(&wire.Record{Kind: wire.KindStarted}, nodes)
	nodes = Apply(created("self", "self", 0), nodes)
	if len(nodes) != 1 {
		t.Errorf("snapshot = %d entries, want just the self-parented node", len(nodes))
	}
}
