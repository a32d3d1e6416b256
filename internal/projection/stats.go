package projection

import "coroviz/internal/hierarchy"

// Stats aggregates one snapshot in a single pass.
type Stats struct {
	Total        int                     `json:"total"`
	ByState      map[hierarchy.State]int `json:"byState"`
	ByDispatcher map[string]int          `json:"byDispatcher"`
	MaxDepth     int                     `json:"maxDepth"`
}

// ComputeStats returns count-by-state, count-by-dispatcher and the maximum
// tree depth of the snapshot. Depths are memoized across nodes, so the
// whole computation is O(n) rather than O(n·depth).
func ComputeStats(nodes hierarchy.NodeMap) *Stats {
	s := &Stats{
		ByState:      make(map[hierarchy.State]int),
		ByDispatcher: make(map[string]int),
	}

	depths := make(map[string]int, len(nodes))
	var depthOf func(id string, visiting map[string]bool) int
	depthOf = func(id string, visiting map[string]bool) int {
		if d, ok := depths[id]; ok {
			return d
		}
		n, ok := nodes[id]
		// Roots, unresolved parents and (malformed) parent cycles all
		// ground the recursion at depth 0.
		if !ok || n.ParentID == "" || visiting[id] {
			depths[id] = 0
			return 0
		}
		if _, ok := nodes[n.ParentID]; !ok {
			depths[id] = 0
			return 0
		}
		visiting[id] = true
		d := 1 + depthOf(n.ParentID, visiting)
		delete(visiting, id)
		depths[id] = d
		return d
	}

	for id, n := range nodes {
		s.Total++
		s.ByState[n.State]++
		if name := dispatcherKey(n); name != "" {
			s.ByDispatcher[name]++
		}
		if d := depthOf(id, map[string]bool{}); d > s.MaxDepth {
			s.MaxDepth = d
		}
	}
	return s
}

func dispatcherKey(n *hierarchy.CoroutineNode) string {
	if n.DispatcherName != "" {
		return n.DispatcherName
	}
	return n.DispatcherID
}
