package mst

import (
	"testing"

	"github.com/leynos/chutoro-go/pkg/types"
)

func edge(s, t int, w float32, seq uint64) Edge {
	return Edge{Source: types.ItemID(s), Target: types.ItemID(t), Weight: w, Sequence: types.Sequence(seq)}
}

func TestUnionFindBasic(t *testing.T) {
	uf := NewUnionFind(5)
	if !uf.Union(0, 1) {
		t.Fatal("expected first union to succeed")
	}
	if uf.Union(0, 1) {
		t.Fatal("expected second union of same set to fail")
	}
	if !uf.Connected(0, 1) {
		t.Fatal("expected 0 and 1 to be connected")
	}
	if uf.Connected(0, 2) {
		t.Fatal("expected 0 and 2 to be disconnected")
	}
}

func TestParallelKruskalAcyclicAndSpanning(t *testing.T) {
	// A 4-cycle plus one extra edge: MST must drop exactly two edges.
	edges := []Edge{
		edge(0, 1, 1.0, 0),
		edge(1, 2, 1.0, 1),
		edge(2, 3, 1.0, 2),
		edge(3, 0, 1.0, 3),
		edge(0, 2, 0.5, 4),
	}
	forest := ParallelKruskal(edges, 4)
	if len(forest.Edges) != 3 {
		t.Fatalf("expected 3 edges in spanning tree over 4 nodes, got %d", len(forest.Edges))
	}
	if forest.ComponentCount != 1 {
		t.Fatalf("expected a single component, got %d", forest.ComponentCount)
	}

	uf := NewUnionFind(4)
	for _, e := range forest.Edges {
		if !uf.Union(int(e.Source), int(e.Target)) {
			t.Fatal("forest must be acyclic: found an edge connecting an already-joined pair")
		}
	}
}

func TestParallelKruskalRespectsWeightOrder(t *testing.T) {
	edges := []Edge{
		edge(0, 1, 5.0, 0),
		edge(1, 2, 1.0, 1),
		edge(0, 2, 2.0, 2),
	}
	forest := ParallelKruskal(edges, 3)
	if len(forest.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(forest.Edges))
	}
	// The cheapest two edges (1.0 and 2.0) must be chosen over the 5.0 edge.
	var total float32
	for _, e := range forest.Edges {
		total += e.Weight
	}
	if total != 3.0 {
		t.Fatalf("expected total weight 3.0, got %v", total)
	}
}

func TestParallelKruskalHandlesDisjointComponents(t *testing.T) {
	edges := []Edge{
		edge(0, 1, 1.0, 0),
		edge(2, 3, 1.0, 1),
	}
	forest := ParallelKruskal(edges, 4)
	if len(forest.Edges) != 2 {
		t.Fatalf("expected 2 edges across 2 components, got %d", len(forest.Edges))
	}
	if forest.ComponentCount != 2 {
		t.Fatalf("expected 2 components, got %d", forest.ComponentCount)
	}
}

func TestParallelKruskalDeterministicAcrossRuns(t *testing.T) {
	edges := []Edge{
		edge(0, 1, 1.0, 0),
		edge(1, 2, 1.0, 1),
		edge(2, 3, 1.0, 2),
		edge(3, 4, 1.0, 3),
		edge(0, 4, 1.0, 4),
		edge(1, 3, 0.9, 5),
	}
	first := ParallelKruskal(edges, 5)
	for i := 0; i < 10; i++ {
		got := ParallelKruskal(edges, 5)
		if len(got.Edges) != len(first.Edges) {
			t.Fatalf("run %d: edge count differs: %d vs %d", i, len(got.Edges), len(first.Edges))
		}
		for j := range got.Edges {
			if got.Edges[j] != first.Edges[j] {
				t.Fatalf("run %d: edge %d differs: %+v vs %+v", i, j, got.Edges[j], first.Edges[j])
			}
		}
	}
}
