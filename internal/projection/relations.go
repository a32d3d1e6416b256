package projection

import (
	"sort"

	"coroviz/internal/hierarchy"
)

// NodeRelations holds one coroutine's immediate family.
type NodeRelations struct {
	Node     *hierarchy.CoroutineNode   `json:"node"`
	Parent   *hierarchy.CoroutineNode   `json:"parent,omitempty"`
	Children []*hierarchy.CoroutineNode `json:"children,omitempty"`
	Siblings []*hierarchy.CoroutineNode `json:"siblings,omitempty"`
}

// Relations returns the parent, children and siblings of one coroutine.
// Siblings share the same parent id, self excluded. Returns nil when the id
// is not in the snapshot.
func Relations(nodes hierarchy.NodeMap, id string) *NodeRelations {
	n, ok := nodes[id]
	if !ok {
		return nil
	}

	r := &NodeRelations{Node: n}
	if n.ParentID != "" {
		r.Parent = nodes[n.ParentID]
	}
	for _, other := range nodes {
		if other.ID == id {
			continue
		}
		if other.ParentID == id {
			r.Children = append(r.Children, other)
		}
		if other.ParentID == n.ParentID {
			r.Siblings = append(r.Siblings, other)
		}
	}
	sortNodes(r.Children)
	sortNodes(r.Siblings)
	return r
}

func sortNodes(ns []*hierarchy.CoroutineNode) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].CreatedAt != ns[j].CreatedAt {
			return ns[i].CreatedAt < ns[j].CreatedAt
		}
		return ns[i].ID < ns[j].ID
	})
}
