// Package projection provides pure read-side transforms over a node-map
// snapshot: forest building, aggregate statistics and relation lookups.
// Everything here is side-effect free and safe to run concurrently with
// reducer application, since snapshots are immutable.
package projection

import (
	"sort"

	"coroviz/internal/hierarchy"
)

// TreeNode is a coroutine with its resolved children.
type TreeNode struct {
	Node     *hierarchy.CoroutineNode `json:"node"`
	Children []*TreeNode              `json:"children,omitempty"`
}

// ToTree groups the snapshot into a forest by parent id. A node whose
// parent id is absent from the snapshot becomes a temporary root; its
// subtree is never dropped. Roots and children are ordered by creation
// time, then id, so repeated projections of the same snapshot agree.
func ToTree(nodes hierarchy.NodeMap) []*TreeNode {
	byID := make(map[string]*TreeNode, len(nodes))
	for id, n := range nodes {
		byID[id] = &TreeNode{Node: n}
	}

	var roots []*TreeNode
	for id, n := range nodes {
		if n.ParentID == "" {
			roots = append(roots, byID[id])
			continue
		}
		parent, ok := byID[n.ParentID]
		if !ok || n.ParentID == id {
			// Unresolved parent: reconcile by holding the subtree as a
			// temporary root.
			roots = append(roots, byID[id])
			continue
		}
		parent.Children = append(parent.Children, byID[id])
	}

	sortForest(roots)
	return roots
}

// Flatten is the inverse of ToTree: it folds a forest back into a node map.
func Flatten(forest []*TreeNode) hierarchy.NodeMap {
	nodes := make(hierarchy.NodeMap)
	var walk func(t *TreeNode)
	walk = func(t *TreeNode) {
		if t == nil || t.Node == nil {
			return
		}
		nodes[t.Node.ID] = t.Node
		for _, c := range t.Children {
			walk(c)
		}
	}
	for _, root := range forest {
		walk(root)
	}
	return nodes
}

func sortForest(ts []*TreeNode) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i].Node, ts[j].Node
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
	for _, t := range ts {
		sortForest(t.Children)
	}
}
