package chutoro

import (
	"errors"
	"fmt"

	"github.com/leynos/chutoro-go/pkg/types"
)

// Code is a stable, tagged error code surfaced to callers. Never compare
// errors by message text; use errors.Is against the sentinel for the code,
// or inspect Error.Code directly.
type Code int

const (
	// CodeUnknown is never produced by chutoro; it is the zero value.
	CodeUnknown Code = iota
	// CodeEmptySource indicates the DataSource reported zero items.
	CodeEmptySource
	// CodeInsufficientItems indicates fewer items than min_cluster_size requires.
	CodeInsufficientItems
	// CodeMemoryLimitExceeded indicates the pre-flight estimator rejected the run.
	CodeMemoryLimitExceeded
	// CodeDataSourceError wraps an error returned by the DataSource itself.
	CodeDataSourceError
	// CodeHNSWInvariantViolation indicates a programmer error in the graph's invariants.
	CodeHNSWInvariantViolation
	// CodeMSTConstructionFailed indicates the parallel Kruskal stage could not complete.
	CodeMSTConstructionFailed
	// CodeHierarchyExtractionFailed indicates the condense/stability stage failed.
	CodeHierarchyExtractionFailed
	// CodeInvalidMinClusterSize indicates Config.MinClusterSize was below 1.
	CodeInvalidMinClusterSize
	// CodeInvalidMaxConnections indicates Config.MaxConnections was below 2.
	CodeInvalidMaxConnections
	// CodeInvalidEfConstruction indicates Config.EfConstruction was below MaxConnections.
	CodeInvalidEfConstruction
	// CodeBackendUnavailable indicates a requested execution strategy has no backend.
	CodeBackendUnavailable
)

func (c Code) String() string {
	switch c {
	case CodeEmptySource:
		return "EMPTY_SOURCE"
	case CodeInsufficientItems:
		return "INSUFFICIENT_ITEMS"
	case CodeMemoryLimitExceeded:
		return "MEMORY_LIMIT_EXCEEDED"
	case CodeDataSourceError:
		return "DATA_SOURCE_ERROR"
	case CodeHNSWInvariantViolation:
		return "HNSW_INVARIANT_VIOLATION"
	case CodeMSTConstructionFailed:
		return "MST_CONSTRUCTION_FAILED"
	case CodeHierarchyExtractionFailed:
		return "HIERARCHY_EXTRACTION_FAILED"
	case CodeInvalidMinClusterSize:
		return "INVALID_MIN_CLUSTER_SIZE"
	case CodeInvalidMaxConnections:
		return "INVALID_MAX_CONNECTIONS"
	case CodeInvalidEfConstruction:
		return "INVALID_EF_CONSTRUCTION"
	case CodeBackendUnavailable:
		return "BACKEND_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type surfaced at the chutoro API boundary. Stage names
// the pipeline stage that raised it ("orchestrator", "hnsw", "mrd",
// "hierarchy"); Code is the stable code a caller can switch on; Err is
// the wrapped cause, if any.
type Error struct {
	Stage string
	Code  Code
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chutoro: %s: %s", e.Stage, e.Code)
	}
	return fmt.Sprintf("chutoro: %s: %s: %v", e.Stage, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by Code, letting callers write errors.Is(err, &chutoro.Error{Code: chutoro.CodeEmptySource}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func wrapError(stage string, code Code, err error) error {
	if err == nil && code == CodeUnknown {
		return nil
	}
	return &Error{Stage: stage, Code: code, Err: err}
}

// DistanceErrorCode, DistanceError and NoiseID-adjacent value types live in
// pkg/types so that every stage package (cache, hnsw, harvest, ...) can use
// them without importing the root chutoro package. The aliases below are
// the public spelling.
type (
	DistanceErrorCode = types.DistanceErrorCode
	DistanceError      = types.DistanceError
)

const (
	DistanceErrorUnknown               = types.DistanceErrorUnknown
	DistanceErrorOutOfBounds           = types.DistanceErrorOutOfBounds
	DistanceErrorDimensionMismatch     = types.DistanceErrorDimensionMismatch
	DistanceErrorOutputLengthMismatch  = types.DistanceErrorOutputLengthMismatch
	DistanceErrorInvalidValue          = types.DistanceErrorInvalidValue
)
