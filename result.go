package chutoro

import "github.com/leynos/chutoro-go/pkg/types"

// ClusteringResult is the final output of a run. Assignments has length n;
// assignments[i] is the cluster label for item i, or a reserved noise
// sentinel (see NoiseLabel) if the item was not placed in any selected
// cluster.
type ClusteringResult struct {
	Assignments  []types.ClusterID
	ClusterCount int

	// NoiseExposed reports whether any item in Assignments carries the
	// noise sentinel. Items outside every selected cluster get that label;
	// points that fall off a surviving cluster during condensation are
	// absorbed into it instead (see DESIGN.md Open Question 5).
	NoiseExposed bool
}

// NoiseLabel is the public sentinel cluster label for noise points: one
// past the last valid cluster label, as documented in spec.md §4.6.
func (r ClusteringResult) NoiseLabel() types.ClusterID {
	return types.ClusterID(r.ClusterCount)
}
