// Package mrd computes per-item core distances from a built HNSW graph and
// lifts candidate-edge weights to mutual-reachability distances.
package mrd

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/leynos/chutoro-go/pkg/harvest"
	"github.com/leynos/chutoro-go/pkg/hnsw"
	"github.com/leynos/chutoro-go/pkg/mst"
	"github.com/leynos/chutoro-go/pkg/types"
)

// CoreDistances computes core_distance(u) = distance to u's k-th nearest
// neighbour for every item in [0, n), using graph.Search. u counts as its
// own nearest neighbour, so this is the distance to the (k-1)-th nearest
// other item (0 when k is 1); items with fewer than k-1 reachable other
// items get +Inf (§4.4). Work fans out across a
// bounded pool via errgroup, the same concurrency primitive the teacher
// promotes to direct use in pkg/mst's parallel sort.
func CoreDistances(graph *hnsw.Graph, n, k, ef int) ([]float32, error) {
	core := make([]float32, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	others := k - 1
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if others <= 0 {
				core[i] = 0
				return nil
			}
			_, dists, err := graph.Search(types.ItemID(i), others, ef)
			if err != nil {
				return err
			}
			if len(dists) < others {
				core[i] = float32(math.Inf(1))
				return nil
			}
			core[i] = dists[others-1]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return core, nil
}

// Lift converts a harvested candidate edge set into the weighted edge list
// ParallelKruskal consumes, using w_mr(u,v) = max(d(u,v), core(u), core(v)).
func Lift(h harvest.Harvest, core []float32) []mst.Edge {
	out := make([]mst.Edge, len(h.Edges))
	for i, e := range h.Edges {
		w := e.Distance
		if core[e.Source] > w {
			w = core[e.Source]
		}
		if core[e.Target] > w {
			w = core[e.Target]
		}
		out[i] = mst.Edge{Source: e.Source, Target: e.Target, Weight: w, Sequence: e.Sequence}
	}
	return out
}
