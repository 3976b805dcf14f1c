package encoding

import (
	"math"
	"testing"
)

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	vec := []float32{1.5, -2.25, 0, 3.125}
	data, err := EncodeVector(vec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := DecodeVector(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("expected %d elements, got %d", len(vec), len(got))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Fatalf("element %d: expected %v, got %v", i, vec[i], got[i])
		}
	}
}

func TestEncodeVectorRejectsNil(t *testing.T) {
	if _, err := EncodeVector(nil); err == nil {
		t.Fatal("expected an error for a nil vector")
	}
}

func TestDecodeVectorRejectsTruncatedData(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2}); err == nil {
		t.Fatal("expected an error for truncated data")
	}
}

func TestDecodeVectorEmpty(t *testing.T) {
	data, err := EncodeVector([]float32{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := DecodeVector(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty vector, got %v", got)
	}
}

func TestEncodeDecodeInt32sRoundTrip(t *testing.T) {
	values := []int32{0, -1, 2147483647, -2147483648, 42}
	data, err := EncodeInt32s(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := DecodeInt32s(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(values) {
		t.Fatalf("expected %d elements, got %d", len(values), len(got))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("element %d: expected %d, got %d", i, values[i], got[i])
		}
	}
}

func TestDecodeInt32sRejectsTruncatedData(t *testing.T) {
	if _, err := DecodeInt32s([]byte{1, 2}); err == nil {
		t.Fatal("expected an error for truncated data")
	}
}

func TestEncodeDecodeMetadataRoundTrip(t *testing.T) {
	meta := map[string]string{"source": "test", "run": "1"}
	s, err := EncodeMetadata(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := DecodeMetadata(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(meta) || got["source"] != "test" || got["run"] != "1" {
		t.Fatalf("expected %v, got %v", meta, got)
	}
}

func TestEncodeMetadataNilIsEmptyString(t *testing.T) {
	s, err := EncodeMetadata(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string, got %q", s)
	}
}

func TestValidateVectorRejectsNaNAndInf(t *testing.T) {
	if err := ValidateVector([]float32{1, float32(math.NaN())}); err == nil {
		t.Fatal("expected an error for a NaN element")
	}
	if err := ValidateVector([]float32{1, float32(math.Inf(1))}); err == nil {
		t.Fatal("expected an error for an infinite element")
	}
	if err := ValidateVector([]float32{}); err == nil {
		t.Fatal("expected an error for an empty vector")
	}
	if err := ValidateVector([]float32{1, 2, 3}); err != nil {
		t.Fatalf("expected no error for a valid vector, got %v", err)
	}
}
