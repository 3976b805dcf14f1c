package datasource

import (
	"math"
	"testing"

	chutoro "github.com/leynos/chutoro-go"
	"github.com/leynos/chutoro-go/pkg/types"
)

func TestEuclideanDistanceMatchesKnownValues(t *testing.T) {
	v := NewVectors("test", [][]float32{{0, 0}, {3, 4}}, Euclidean)
	d, err := v.Distance(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(d)-5.0) > 1e-6 {
		t.Fatalf("expected distance 5.0, got %v", d)
	}
}

func TestEuclideanDistanceSelfIsZero(t *testing.T) {
	v := NewVectors("test", [][]float32{{1, 2, 3}}, Euclidean)
	d, err := v.Distance(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestCosineDistanceIdenticalDirectionIsZero(t *testing.T) {
	v := NewVectors("test", [][]float32{{1, 0}, {2, 0}}, Cosine)
	d, err := v.Distance(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(d)) > 1e-6 {
		t.Fatalf("expected distance ~0 for same-direction vectors, got %v", d)
	}
}

func TestCosineDistanceOppositeDirectionIsTwo(t *testing.T) {
	v := NewVectors("test", [][]float32{{1, 0}, {-1, 0}}, Cosine)
	d, err := v.Distance(0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(d)-2.0) > 1e-6 {
		t.Fatalf("expected distance 2.0 for opposite-direction vectors, got %v", d)
	}
}

func TestDistanceDimensionMismatch(t *testing.T) {
	v := NewVectors("test", [][]float32{{1, 2}, {1, 2, 3}}, Euclidean)
	_, err := v.Distance(0, 1)
	var de *chutoro.DistanceError
	if !asDistanceError(err, &de) {
		t.Fatalf("expected a *chutoro.DistanceError, got %v", err)
	}
	if de.Code != chutoro.DistanceErrorDimensionMismatch {
		t.Fatalf("expected DimensionMismatch, got %v", de.Code)
	}
}

func asDistanceError(err error, target **chutoro.DistanceError) bool {
	de, ok := err.(*chutoro.DistanceError)
	if !ok {
		return false
	}
	*target = de
	return true
}

func TestDistanceBatchDelegatesToDistance(t *testing.T) {
	v := NewVectors("test", [][]float32{{0, 0}, {3, 4}, {6, 8}}, Euclidean)
	pairs := []chutoro.Pair{{I: 0, J: 1}, {I: 1, J: types.ItemID(2)}}
	out := make([]float32, 2)
	if err := v.DistanceBatch(pairs, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(out[0])-5.0) > 1e-6 || math.Abs(float64(out[1])-5.0) > 1e-6 {
		t.Fatalf("expected both distances to be 5.0, got %v", out)
	}
}
