// Package datasource provides DataSource implementations over in-memory
// float32 vectors, adapted from the teacher's similarity functions
// (originally scored for ranking, here turned into true dissimilarities).
package datasource

import (
	"math"

	chutoro "github.com/leynos/chutoro-go"
	"github.com/leynos/chutoro-go/pkg/types"
)

// Metric selects the distance function Vectors uses.
type Metric int

const (
	// Euclidean is plain L2 distance.
	Euclidean Metric = iota
	// Cosine is 1 - cosine similarity, so identical-direction vectors have
	// distance 0 and opposite-direction vectors have distance 2.
	Cosine
)

// Vectors is a DataSource over a fixed slice of equal-length float32
// vectors, grounded on the teacher's cosineSimilarity/euclideanDistance
// pair in similarity.go, generalized from ranking scores (higher is
// better) to true non-negative dissimilarities (lower is better).
type Vectors struct {
	name   string
	points [][]float32
	metric Metric
}

// NewVectors builds a Vectors DataSource. All points must share the same
// dimensionality; this is checked lazily, per Distance call, to match the
// DataSource contract's DimensionMismatch error rather than panicking here.
func NewVectors(name string, points [][]float32, metric Metric) *Vectors {
	return &Vectors{name: name, points: points, metric: metric}
}

// NewEuclidean is a convenience constructor for the common case.
func NewEuclidean(points [][]float32) *Vectors {
	return NewVectors("euclidean-vectors", points, Euclidean)
}

// NewCosine is a convenience constructor for cosine-distance points.
func NewCosine(points [][]float32) *Vectors {
	return NewVectors("cosine-vectors", points, Cosine)
}

func (v *Vectors) Len() int { return len(v.points) }

func (v *Vectors) Name() string { return v.name }

func (v *Vectors) Distance(i, j types.ItemID) (float32, error) {
	a, b := v.points[i], v.points[j]
	if len(a) != len(b) {
		return 0, &chutoro.DistanceError{
			Code:     chutoro.DistanceErrorDimensionMismatch,
			Actual:   len(b),
			Expected: len(a),
			Source:   v.name,
		}
	}
	switch v.metric {
	case Cosine:
		return cosineDistance(a, b)
	default:
		return euclideanDistance(a, b), nil
	}
}

func (v *Vectors) DistanceBatch(pairs []chutoro.Pair, out []float32) error {
	return chutoro.DistanceBatchDefault(v, pairs, out)
}

func euclideanDistance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

func cosineDistance(a, b []float32) (float32, error) {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, &chutoro.DistanceError{Code: chutoro.DistanceErrorInvalidValue}
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32(1 - sim), nil
}
