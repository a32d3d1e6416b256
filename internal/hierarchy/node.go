package hierarchy

// State is the lifecycle state of a coroutine.
type State string

const (
	StateCreated            State = "CREATED"
	StateActive             State = "ACTIVE"
	StateSuspended          State = "SUSPENDED"
	StateWaitingForChildren State = "WAITING_FOR_CHILDREN"
	StateCompleted          State = "COMPLETED"
	StateCancelled          State = "CANCELLED"
	StateFailed             State = "FAILED"
)

// Terminal reports whether the state can never change again. FAILED
// additionally signals to consumers that cancellation propagates to the
// parent and siblings; recording that fact is this engine's whole
// involvement, executing the propagation is the runtime's.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// SuspensionPoint records one voluntary yield of a coroutine.
type SuspensionPoint struct {
	Function string `json:"function,omitempty"`
	Location string `json:"location,omitempty"`
	Reason   string `json:"reason,omitempty"`
	At       uint64 `json:"at"`
}

// CoroutineNode is the reconstructed view of a single coroutine. Nodes are
// created on the first event naming their id and never deleted; whole-session
// teardown is the session manager's concern.
type CoroutineNode struct {
	ID       string `json:"id"`
	JobID    string `json:"jobId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	ScopeID  string `json:"scopeId,omitempty"`
	Label    string `json:"label,omitempty"`
	State    State  `json:"state"`

	CreatedAt   uint64 `json:"createdAt"`
	CompletedAt uint64 `json:"completedAt,omitempty"`

	// Set only while the coroutine is scheduled on a thread.
	CurrentThreadID   string `json:"currentThreadId,omitempty"`
	CurrentThreadName string `json:"currentThreadName,omitempty"`
	DispatcherID      string `json:"dispatcherId,omitempty"`
	DispatcherName    string `json:"dispatcherName,omitempty"`

	// ChildrenIDs is in arrival order, which is not necessarily causal
	// spawn order. ActiveChildrenIDs holds the not-yet-terminal subset;
	// an explicit waiting-for-children payload overwrites it wholesale.
	ChildrenIDs         []string        `json:"childrenIds,omitempty"`
	ActiveChildrenIDs   map[string]bool `json:"activeChildrenIds,omitempty"`
	ActiveChildrenCount int             `json:"activeChildrenCount"`

	ActiveTime    uint64 `json:"activeTimeNanos"`
	SuspendedTime uint64 `json:"suspendedTimeNanos"`

	SuspensionPoints  []SuspensionPoint `json:"suspensionPoints,omitempty"`
	CurrentSuspension *SuspensionPoint  `json:"currentSuspension,omitempty"`

	// BodyCompleted records that the coroutine's own body finished, even
	// when the node could not park in WAITING_FOR_CHILDREN yet because no
	// live child had been observed at the time.
	BodyCompleted bool `json:"bodyCompleted,omitempty"`

	CancellationRequested bool     `json:"cancellationRequested,omitempty"`
	PendingJoins          int      `json:"pendingJoins,omitempty"`
	HasDeferredResult     bool     `json:"hasDeferredResult,omitempty"`
	AwaitedBy             []string `json:"awaitedBy,omitempty"`
	FailureMessage        string   `json:"failureMessage,omitempty"`

	// Timestamp of the last state transition, for active/suspended
	// accumulation. Not part of the queryable surface.
	lastTransition uint64
}

// clone returns a deep copy so the original node stays immutable when a new
// snapshot mutates it.
func (n *CoroutineNode) clone() *CoroutineNode {
	c := *n
	c.ChildrenIDs = append([]string(nil), n.ChildrenIDs...)
	c.ActiveChildrenIDs = make(map[string]bool, len(n.ActiveChildrenIDs))
	for id := range n.ActiveChildrenIDs {
		c.ActiveChildrenIDs[id] = true
	}
	c.SuspensionPoints = append([]SuspensionPoint(nil), n.SuspensionPoints...)
	c.AwaitedBy = append([]string(nil), n.AwaitedBy...)
	if n.CurrentSuspension != nil {
		sp := *n.CurrentSuspension
		c.CurrentSuspension = &sp
	}
	return &c
}
