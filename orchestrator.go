package chutoro

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/leynos/chutoro-go/pkg/budget"
	"github.com/leynos/chutoro-go/pkg/cache"
	"github.com/leynos/chutoro-go/pkg/harvest"
	"github.com/leynos/chutoro-go/pkg/hierarchy"
	"github.com/leynos/chutoro-go/pkg/hnsw"
	"github.com/leynos/chutoro-go/pkg/mrd"
	"github.com/leynos/chutoro-go/pkg/mst"
	"github.com/leynos/chutoro-go/pkg/types"
)

const defaultCacheCapacity = 1 << 20 // spec default: 1,048,576 entries

// Run sequences a full build: HNSW graph construction, candidate-edge
// harvest, mutual-reachability lift, parallel minimum spanning forest, and
// hierarchy extraction. It is the Orchestrator's sole public entry point;
// cancellation is cooperative, checked between stages rather than inside
// them, so a cancelled context always leaves the run at a clean stage
// boundary instead of a half-built graph.
func Run(ctx context.Context, src DataSource, cfg Config) (ClusteringResult, error) {
	return RunWithLogger(ctx, src, cfg, NopLogger())
}

// RunWithLogger is Run with an explicit Logger, for callers that want
// build progress surfaced (the CLI, long-running batch jobs).
func RunWithLogger(ctx context.Context, src DataSource, cfg Config, log Logger) (ClusteringResult, error) {
	if err := cfg.Validate(); err != nil {
		return ClusteringResult{}, err
	}

	n := src.Len()
	if n == 0 {
		return ClusteringResult{}, wrapError("orchestrator", CodeEmptySource, fmt.Errorf("%s: no items", src.Name()))
	}
	if n < cfg.MinClusterSize {
		return ClusteringResult{}, wrapError("orchestrator", CodeInsufficientItems,
			fmt.Errorf("%s: %d items, min_cluster_size %d", src.Name(), n, cfg.MinClusterSize))
	}

	if cfg.MaxBytes != nil {
		estimate := budget.Estimate(n, budget.Params{M: cfg.MaxConnections, CacheCapacity: defaultCacheCapacity})
		log.Debug("memory pre-flight", "estimate", budget.Humanize(estimate), "limit", budget.Humanize(*cfg.MaxBytes))
		if estimate > *cfg.MaxBytes {
			return ClusteringResult{}, wrapError("orchestrator", CodeMemoryLimitExceeded,
				fmt.Errorf("estimated %s exceeds limit %s", budget.Humanize(estimate), budget.Humanize(*cfg.MaxBytes)))
		}
	}

	if err := checkCancelled(ctx, "preflight"); err != nil {
		return ClusteringResult{}, err
	}

	graph, h, err := buildGraph(ctx, src, cfg, n, log)
	if err != nil {
		return ClusteringResult{}, err
	}

	if err := checkCancelled(ctx, "harvest"); err != nil {
		return ClusteringResult{}, err
	}

	edges, err := liftToMutualReachability(graph, h, cfg, n, log)
	if err != nil {
		return ClusteringResult{}, err
	}

	if err := checkCancelled(ctx, "mrd"); err != nil {
		return ClusteringResult{}, err
	}

	forest := mst.ParallelKruskal(edges, n)
	log.Info("spanning forest built", "edges", len(forest.Edges), "components", forest.ComponentCount)

	if err := checkCancelled(ctx, "mst"); err != nil {
		return ClusteringResult{}, err
	}

	extracted, err := hierarchy.Extract(forest, n, cfg.MinClusterSize)
	if err != nil {
		return ClusteringResult{}, wrapError("hierarchy", CodeHierarchyExtractionFailed, err)
	}

	return toClusteringResult(extracted), nil
}

// buildGraph inserts every item into a fresh HNSW index, fanning insertion
// out across cfg.Workers goroutines (GOMAXPROCS if zero). Insertion order
// is enforced by Graph's own turnstile, so fanning the calls out here never
// changes the resulting graph (DETERMINISM-1); it only changes which
// goroutine happens to be blocked waiting for its turn.
func buildGraph(ctx context.Context, src DataSource, cfg Config, n int, log Logger) (*hnsw.Graph, harvest.Harvest, error) {
	params := hnsw.DefaultParams(cfg.MaxConnections, cfg.EfConstruction)
	dc := cache.New(defaultCacheCapacity)
	graph := hnsw.New(n, params, src, dc, cfg.Seed)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	buffers := make([]*harvest.Buffer, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			buf := harvest.NewBuffer(2 * cfg.MaxConnections)
			buffers[i] = buf
			if err := graph.Insert(types.ItemID(i), types.Sequence(i), buf); err != nil {
				return fmt.Errorf("%s: item %d: %w", src.Name(), i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, harvest.Harvest{}, wrapError("hnsw", CodeHNSWInvariantViolation, err)
	}

	log.Info("hnsw build complete", "items", n, "workers", workers)
	return graph, harvest.Merge(buffers...), nil
}

// liftToMutualReachability computes every item's core distance and
// reweights the harvested candidate edges accordingly.
func liftToMutualReachability(graph *hnsw.Graph, h harvest.Harvest, cfg Config, n int, log Logger) ([]mst.Edge, error) {
	core, err := mrd.CoreDistances(graph, n, cfg.MinClusterSize, cfg.EfConstruction)
	if err != nil {
		return nil, wrapError("mrd", CodeHNSWInvariantViolation, err)
	}
	edges := mrd.Lift(h, core)
	log.Debug("mutual reachability lifted", "candidate_edges", len(edges))
	return edges, nil
}

// toClusteringResult remaps hierarchy's internal noise sentinel to the
// public label (one past the last valid cluster), per NoiseLabel.
func toClusteringResult(r hierarchy.Result) ClusteringResult {
	result := ClusteringResult{
		Assignments:  r.Assignments,
		ClusterCount: r.ClusterCount,
	}
	noiseLabel := result.NoiseLabel()
	for i, a := range result.Assignments {
		if a == types.NoiseID {
			result.Assignments[i] = noiseLabel
			result.NoiseExposed = true
		}
	}
	return result
}

// checkCancelled reports ctx's cancellation unwrapped, so callers can use
// errors.Is(err, context.Canceled) directly rather than unwrapping a Code
// that was never meant to represent it.
func checkCancelled(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("chutoro: %s: %w", stage, ctx.Err())
	default:
		return nil
	}
}
