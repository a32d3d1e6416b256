package projection

import (
	"testing"

	"coroviz/internal/hierarchy"
	"coroviz/internal/wire"
)

func snapshot(recs ...*wire.Record) hierarchy.NodeMap {
	nodes := hierarchy.NodeMap{}
	for _, r := range recs {
		nodes = hierarchy.Apply(r, nodes)
	}
	return nodes
}

func created(id, parent string, ts uint64) *wire.Record {
	return &wire.Record{
		SessionID:   "s1",
		Kind:        wire.KindCreated,
		CoroutineID: id,
		ParentID:    parent,
		TsNanos:     ts,
	}
}

func TestToTree_Forest(t *testing.T) {
	nodes := snapshot(
		created("r1", "", 0),
		created("a", "r1", 10),
		created("b", "r1", 20),
		created("a1", "a", 30),
		created("r2", "", 40),
	)

	forest := ToTree(nodes)

	if len(forest) != 2 {
		t.Fatalf("roots = %d, want 2", len(forest))
	}
	if forest[0].Node.ID != "r1" || forest[1].Node.ID != "r2" {
		t.Errorf("root order = %s, %s; want creation order r1, r2", forest[0].Node.ID, forest[1].Node.ID)
	}
	if len(forest[0].Children) != 2 {
		t.Fatalf("r1 children = %d, want 2", len(forest[0].Children))
	}
	if forest[0].Children[0].Node.ID != "a" {
		t.Errorf("first child = %s, want a", forest[0].Children[0].Node.ID)
	}
	if len(forest[0].Children[0].Children) != 1 || forest[0].Children[0].Children[0].Node.ID != "a1" {
		t.Error("grandchild a1 missing")
	}
}

func TestToTree_UnresolvedParentBecomesTemporaryRoot(t *testing.T) {
	nodes := snapshot(
		created("orphan", "never-seen", 0),
		created("child-of-orphan", "orphan", 10),
	)

	forest := ToTree(nodes)

	if len(forest) != 1 {
		t.Fatalf("roots = %d, want the orphan as temporary root", len(forest))
	}
	if forest[0].Node.ID != "orphan" {
		t.Errorf("temporary root = %s, want orphan", forest[0].Node.ID)
	}
	if len(forest[0].Children) != 1 || forest[0].Children[0].Node.ID != "child-of-orphan" {
		t.Error("subtree under the orphan must not be dropped")
	}
}

func TestToTree_LateParentReconciles(t *testing.T) {
	nodes := snapshot(
		created("child", "P", 5),
		created("P", "", 10),
	)

	forest := ToTree(nodes)

	if len(forest) != 1 || forest[0].Node.ID != "P" {
		t.Fatalf("want single root P once the parent arrived, got %d roots", len(forest))
	}
	if len(forest[0].Children) != 1 || forest[0].Children[0].Node.ID != "child" {
		t.Error("child must reattach under the late parent")
	}
}

func TestTreeRoundTrip(t *testing.T) {
	nodes := snapshot(
		created("r", "", 0),
		created("a", "r", 1),
		created("b", "r", 2),
		created("ghost-child", "ghost", 3),
	)

	flattened := Flatten(ToTree(nodes))

	if len(flattened) != len(nodes) {
		t.Fatalf("flatten lost nodes: %d != %d", len(flattened), len(nodes))
	}
	for id, n := range nodes {
		if flattened[id] != n {
			t.Errorf("node %s changed identity through the round trip", id)
		}
	}

	again := ToTree(flattened)
	first := ToTree(nodes)
	if len(again) != len(first) {
		t.Errorf("re-projection differs: %d roots vs %d", len(again), len(first))
	}
}

func TestToTree_Empty(t *testing.T) {
	if forest := ToTree(hierarchy.NodeMap{}); len(forest) != 0 {
		t.Errorf("empty snapshot projected %d roots", len(forest))
	}
}
