package encoding

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidVector is returned when a vector is invalid
var ErrInvalidVector = errors.New("invalid vector")

// EncodeVector encodes a float32 vector to bytes
func EncodeVector(vector []float32) ([]byte, error) {
	if vector == nil {
		return nil, ErrInvalidVector
	}
	
	buf := new(bytes.Buffer)
	
	// Write the length first - check for overflow
	vectorLen := len(vector)
	if vectorLen > 2147483647 { // max int32
		return nil, fmt.Errorf("vector too large: %d elements exceeds maximum", vectorLen)
	}
	if err := binary.Write(buf, binary.LittleEndian, int32(vectorLen)); err != nil {
		return nil, fmt.Errorf("failed to encode vector length: %w", err)
	}
	
	// Write each float32 value
	for _, val := range vector {
		if err := binary.Write(buf, binary.LittleEndian, val); err != nil {
			return nil, fmt.Errorf("failed to encode vector value: %w", err)
		}
	}
	
	return buf.Bytes(), nil
}

// DecodeVector decodes bytes to a float32 vector
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}
	
	buf := bytes.NewReader(data)
	
	// Read the length first
	var length int32
	if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to decode vector length: %w", err)
	}
	
	if length < 0 {
		return nil, ErrInvalidVector
	}
	
	if length == 0 {
		return []float32{}, nil
	}
	
	// Check if we have enough bytes for the vector
	expectedBytes := int(length) * 4 // 4 bytes per float32
	if buf.Len() < expectedBytes {
		return nil, ErrInvalidVector
	}
	
	// Read the vector values
	vector := make([]float32, length)
	for i := int32(0); i < length; i++ {
		if err := binary.Read(buf, binary.LittleEndian, &vector[i]); err != nil {
			return nil, fmt.Errorf("failed to decode vector value at index %d: %w", i, err)
		}
	}
	
	return vector, nil
}

// EncodeInt32s encodes a slice of int32 using the same length-prefixed
// little-endian shape as EncodeVector, for non-float32 data (e.g. cluster
// labels) that still wants the vector wire format without the float32
// precision loss converting through EncodeVector would introduce.
func EncodeInt32s(values []int32) ([]byte, error) {
	buf := new(bytes.Buffer)

	length := len(values)
	if length > 2147483647 { // max int32
		return nil, fmt.Errorf("slice too large: %d elements exceeds maximum", length)
	}
	if err := binary.Write(buf, binary.LittleEndian, int32(length)); err != nil {
		return nil, fmt.Errorf("failed to encode slice length: %w", err)
	}
	for _, val := range values {
		if err := binary.Write(buf, binary.LittleEndian, val); err != nil {
			return nil, fmt.Errorf("failed to encode slice value: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeInt32s decodes bytes produced by EncodeInt32s back to an int32
// slice.
func DecodeInt32s(data []byte) ([]int32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}

	buf := bytes.NewReader(data)

	var length int32
	if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to decode slice length: %w", err)
	}
	if length < 0 {
		return nil, ErrInvalidVector
	}
	if length == 0 {
		return []int32{}, nil
	}

	expectedBytes := int(length) * 4
	if buf.Len() < expectedBytes {
		return nil, ErrInvalidVector
	}

	values := make([]int32, length)
	for i := int32(0); i < length; i++ {
		if err := binary.Read(buf, binary.LittleEndian, &values[i]); err != nil {
			return nil, fmt.Errorf("failed to decode slice value at index %d: %w", i, err)
		}
	}
	return values, nil
}

// EncodeMetadata encodes metadata to JSON string
func EncodeMetadata(metadata map[string]string) (string, error) {
	if metadata == nil {
		return "", nil
	}
	
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	
	return string(data), nil
}

// DecodeMetadata decodes JSON string to metadata
func DecodeMetadata(jsonStr string) (map[string]string, error) {
	if jsonStr == "" {
		return nil, nil
	}
	
	var metadata map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	
	return metadata, nil
}

// ValidateVector validates a vector
func ValidateVector(vector []float32) error {
	if vector == nil {
		return ErrInvalidVector
	}
	
	if len(vector) == 0 {
		return ErrInvalidVector
	}
	
	for _, val := range vector {
		if val != val { // NaN check
			return ErrInvalidVector
		}
		// Check for infinity
		if math.IsInf(float64(val), 0) {
			return ErrInvalidVector
		}
	}
	
	return nil
}
