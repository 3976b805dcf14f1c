package harvest

import (
	"testing"

	"github.com/leynos/chutoro-go/pkg/types"
)

func TestCanonicaliseOrdersSourceTarget(t *testing.T) {
	e := CandidateEdge{Source: 5, Target: 2, Distance: 1.5, Sequence: 9}
	c := Canonicalise(e)
	if c.Source != 2 || c.Target != 5 {
		t.Fatalf("expected (2,5), got (%d,%d)", c.Source, c.Target)
	}
	if c.Distance != e.Distance || c.Sequence != e.Sequence {
		t.Fatal("canonicalise must preserve distance and sequence (HARVEST-2)")
	}
}

func TestMergeDedupesKeepingSmallestSequence(t *testing.T) {
	b1 := NewBuffer(2)
	b1.Add(CandidateEdge{Source: 0, Target: 1, Distance: 1.0, Sequence: 5})
	b2 := NewBuffer(2)
	b2.Add(CandidateEdge{Source: 1, Target: 0, Distance: 1.0, Sequence: 2})

	h := Merge(b1, b2)
	if len(h.Edges) != 1 {
		t.Fatalf("expected exactly one deduped edge, got %d", len(h.Edges))
	}
	if h.Edges[0].Sequence != 2 {
		t.Fatalf("expected smallest sequence to survive, got %d", h.Edges[0].Sequence)
	}
}

func TestMergeSortsBySequenceThenSourceThenTarget(t *testing.T) {
	b := NewBuffer(4)
	b.Add(CandidateEdge{Source: 3, Target: 4, Sequence: 1})
	b.Add(CandidateEdge{Source: 1, Target: 2, Sequence: 1})
	b.Add(CandidateEdge{Source: 0, Target: 9, Sequence: 0})

	h := Merge(b)
	want := []struct{ src, tgt types.ItemID }{
		{0, 9}, {1, 2}, {3, 4},
	}
	if len(h.Edges) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(h.Edges))
	}
	for i, w := range want {
		if h.Edges[i].Source != w.src || h.Edges[i].Target != w.tgt {
			t.Fatalf("edge %d: got (%d,%d), want (%d,%d)", i, h.Edges[i].Source, h.Edges[i].Target, w.src, w.tgt)
		}
	}
}

func TestMergeIsPermutationOfInput(t *testing.T) {
	b := NewBuffer(3)
	edges := []CandidateEdge{
		{Source: 0, Target: 1, Sequence: 0},
		{Source: 2, Target: 3, Sequence: 1},
		{Source: 4, Target: 5, Sequence: 2},
	}
	for _, e := range edges {
		b.Add(e)
	}
	h := Merge(b)
	if len(h.Edges) != len(edges) {
		t.Fatalf("expected no edges dropped, got %d want %d", len(h.Edges), len(edges))
	}
	for i := range edges {
		if h.Edges[i] != edges[i] {
			t.Fatalf("edge %d: got %+v, want %+v", i, h.Edges[i], edges[i])
		}
	}
}
