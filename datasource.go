package chutoro

import "github.com/leynos/chutoro-go/pkg/types"

// DataSource is the capability the core consumes. It never needs to know
// how items are stored; it only needs to compare them.
type DataSource interface {
	// Len returns the total item count. Stable for the lifetime of a run.
	Len() int

	// Name returns a human-readable identifier used in error messages.
	Name() string

	// Distance returns the dissimilarity between items i and j. It must be
	// non-negative and finite; NaN is a hard error. Implementations need not
	// be symmetric, but chutoro treats the result as symmetric and
	// canonicalises (i,j) at the cache layer.
	Distance(i, j types.ItemID) (float32, error)

	// DistanceBatch fills out[k] with Distance(pairs[k].I, pairs[k].J) for
	// each pair. The default behavior (DistanceBatchDefault) calls Distance
	// once per pair; implementations may override for SIMD or I/O batching.
	DistanceBatch(pairs []Pair, out []float32) error
}

// Pair is one (i, j) index pair passed to DistanceBatch.
type Pair struct {
	I, J types.ItemID
}

// DistanceBatchDefault is the naive per-pair DistanceBatch implementation,
// exported so DataSource implementations can embed it instead of
// reimplementing the loop.
func DistanceBatchDefault(src DataSource, pairs []Pair, out []float32) error {
	if len(out) != len(pairs) {
		return &DistanceError{
			Code:     DistanceErrorOutputLengthMismatch,
			Actual:   len(out),
			Expected: len(pairs),
			Source:   src.Name(),
		}
	}
	for k, p := range pairs {
		d, err := src.Distance(p.I, p.J)
		if err != nil {
			return err
		}
		out[k] = d
	}
	return nil
}
