// Package chutoro implements the core of a density-based clustering engine
// using an approximation of HDBSCAN* (FISHDBC): a Hierarchical Navigable
// Small World graph is built over the input items, the graph's insertions
// are harvested for a sparse candidate-edge set, edge weights are lifted to
// mutual-reachability distances, a parallel Kruskal sweep turns the
// candidates into a minimum spanning forest, and a condensed cluster
// hierarchy is extracted and scored for stability to produce a flat
// clustering.
//
// chutoro avoids ever materialising the full O(n^2) distance matrix: the
// only distances computed are those the HNSW build and core-distance
// lookups actually need, memoised by a concurrent DistanceCache.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "fmt"
//	    "github.com/leynos/chutoro-go"
//	    "github.com/leynos/chutoro-go/pkg/datasource"
//	)
//
//	func main() {
//	    src := datasource.NewEuclidean(points) // [][]float32
//	    cfg := chutoro.DefaultConfig()
//
//	    result, err := chutoro.Run(context.Background(), src, cfg)
//	    if err != nil {
//	        panic(err)
//	    }
//	    fmt.Println(result.ClusterCount, result.Assignments)
//	}
//
// # Scope
//
// chutoro's core is polymorphic over any type implementing DataSource; it
// does not ingest files, does not talk to a GPU backend, and does not
// expose a CLI itself — those live in cmd/chutoro and pkg/store as thin,
// separately testable collaborators the core never depends on.
package chutoro
