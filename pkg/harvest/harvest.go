// Package harvest extracts and accumulates the sparse candidate-edge set
// discovered during HNSW construction: the edges that stand in for the
// O(n^2) distance matrix in the downstream minimum-spanning-forest build.
package harvest

import (
	"slices"

	"github.com/leynos/chutoro-go/pkg/types"
)

// CandidateEdge is one (source, target, distance) tuple discovered while
// trimming a node's neighbour list during HNSW insertion. Canonical form
// has Source <= Target; Sequence is the insertion index of the edge's
// source at the time of harvest (HARVEST-1, HARVEST-2).
type CandidateEdge struct {
	Source   types.ItemID
	Target   types.ItemID
	Distance float32
	Sequence types.Sequence
}

// Canonicalise returns e with Source <= Target, preserving Distance and
// Sequence (HARVEST-2).
func Canonicalise(e CandidateEdge) CandidateEdge {
	if e.Source <= e.Target {
		return e
	}
	e.Source, e.Target = e.Target, e.Source
	return e
}

// Harvest is the deduplicated, sorted candidate-edge set produced by one
// HNSW build: a non-restartable, already-materialised sequence (see
// SPEC_FULL.md §9 on generators/iterators — downstream code ranges over
// Edges directly rather than pulling from a live generator).
type Harvest struct {
	Edges []CandidateEdge
}

// Buffer is the thread-local accumulator one insertion worker writes into.
// Workers never share a Buffer; Merge combines them at the stage boundary.
type Buffer struct {
	edges []CandidateEdge
}

// NewBuffer creates a Buffer with capacity hinted by expected neighbour
// count so insertion rarely reallocates.
func NewBuffer(capHint int) *Buffer {
	return &Buffer{edges: make([]CandidateEdge, 0, capHint)}
}

// Add appends a raw (possibly non-canonical) edge. It does not check for
// self-loops; pkg/hnsw's Insert only offers edges to neighbours found
// before u itself is committed, so it never passes u==v.
func (b *Buffer) Add(e CandidateEdge) {
	b.edges = append(b.edges, Canonicalise(e))
}

// Merge concatenates every worker's Buffer, deduplicates by (source,
// target) keeping the occurrence with the smallest Sequence, and returns
// the result sorted by (Sequence, Source, Target) per HARVEST-3.
func Merge(buffers ...*Buffer) Harvest {
	total := 0
	for _, b := range buffers {
		total += len(b.edges)
	}
	best := make(map[[2]types.ItemID]CandidateEdge, total)
	for _, b := range buffers {
		for _, e := range b.edges {
			k := [2]types.ItemID{e.Source, e.Target}
			if cur, ok := best[k]; !ok || e.Sequence < cur.Sequence {
				best[k] = e
			}
		}
	}
	out := make([]CandidateEdge, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b CandidateEdge) int {
		if a.Sequence != b.Sequence {
			return cmp(a.Sequence, b.Sequence)
		}
		if a.Source != b.Source {
			return cmp(a.Source, b.Source)
		}
		return cmp(a.Target, b.Target)
	})
	return Harvest{Edges: out}
}

func cmp[T ~int | ~int32 | ~uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
