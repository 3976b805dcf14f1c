package mst

import (
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/leynos/chutoro-go/pkg/types"
)

// Edge is one lifted candidate edge: a mutual-reachability-weighted pair
// ready for the Kruskal sweep.
type Edge struct {
	Source   types.ItemID
	Target   types.ItemID
	Weight   float32
	Sequence types.Sequence
}

// Forest is the minimum spanning forest Kruskal produces: an edge set plus
// the number of connected components it spans.
type Forest struct {
	Edges          []Edge
	ComponentCount int
}

func less(a, b Edge) int {
	switch {
	case a.Weight < b.Weight:
		return -1
	case a.Weight > b.Weight:
		return 1
	}
	if a.Source != b.Source {
		return cmp(a.Source, b.Source)
	}
	if a.Target != b.Target {
		return cmp(a.Target, b.Target)
	}
	return cmp(a.Sequence, b.Sequence)
}

func cmp[T ~int32 | ~uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// parallelSort sorts edges into ascending (weight, source, target,
// sequence) total order by splitting into chunks sorted concurrently via
// an errgroup, then merging sequentially. The merge step is where
// correctness lives; chunk sort is where the concurrency is (MST-3 /
// SPEC_FULL.md §4.5 expansion).
func parallelSort(edges []Edge) []Edge {
	n := len(edges)
	if n < 2 {
		return edges
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 2 {
		slices.SortFunc(edges, less)
		return edges
	}

	chunkSize := (n + workers - 1) / workers
	chunks := make([][]Edge, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, edges[start:end])
	}

	var g errgroup.Group
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			slices.SortFunc(c, less)
			return nil
		})
	}
	_ = g.Wait() // chunk sort cannot fail; no error path exists

	return mergeChunks(chunks)
}

func mergeChunks(chunks [][]Edge) []Edge {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]Edge, 0, total)
	idx := make([]int, len(chunks))
	for {
		bestChunk := -1
		for ci, c := range chunks {
			if idx[ci] >= len(c) {
				continue
			}
			if bestChunk == -1 || less(c[idx[ci]], chunks[bestChunk][idx[bestChunk]]) < 0 {
				bestChunk = ci
			}
		}
		if bestChunk == -1 {
			break
		}
		out = append(out, chunks[bestChunk][idx[bestChunk]])
		idx[bestChunk]++
	}
	return out
}

// ParallelKruskal sorts edges (in parallel) and sweeps them sequentially
// over a concurrent union-find, adding each edge that connects two
// distinct components. n is the total item count; the component count of
// the lifted candidate graph is computed up front (countComponents) and
// bounds early termination once the forest spans every component. The sweep itself must stay sequential and order-
// respecting: Kruskal's correctness depends on processing edges in
// ascending weight order (SPEC_FULL.md §4.5 expansion).
func ParallelKruskal(edges []Edge, n int) Forest {
	sorted := parallelSort(append([]Edge(nil), edges...))
	uf := NewUnionFind(n)
	want := n - countComponents(edges, n)

	forestEdges := make([]Edge, 0, want)
	for _, e := range sorted {
		if len(forestEdges) >= want {
			break
		}
		if uf.Union(int(e.Source), int(e.Target)) {
			forestEdges = append(forestEdges, e)
		}
	}

	roots := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		roots[uf.Find(i)] = true
	}
	return Forest{Edges: forestEdges, ComponentCount: len(roots)}
}

func countComponents(edges []Edge, n int) int {
	uf := NewUnionFind(n)
	for _, e := range edges {
		uf.Union(int(e.Source), int(e.Target))
	}
	roots := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		roots[uf.Find(i)] = true
	}
	return len(roots)
}
