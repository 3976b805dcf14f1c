package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/leynos/chutoro-go/pkg/types"
)

func openTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, ctx
}

func TestSaveAndLoadRunRoundTrip(t *testing.T) {
	s, ctx := openTestStore(t)

	run := Run{
		RunID:        "run-1",
		ClusterCount: 2,
		Assignments:  []types.ClusterID{0, 0, 1, types.NoiseID},
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := s.LoadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to load run: %v", err)
	}
	if got.RunID != run.RunID || got.ClusterCount != run.ClusterCount {
		t.Fatalf("expected %+v, got %+v", run, got)
	}
	if len(got.Assignments) != len(run.Assignments) {
		t.Fatalf("expected %d assignments, got %d", len(run.Assignments), len(got.Assignments))
	}
	for i := range run.Assignments {
		if got.Assignments[i] != run.Assignments[i] {
			t.Fatalf("assignment %d: expected %v, got %v", i, run.Assignments[i], got.Assignments[i])
		}
	}
}

func TestSaveRunOverwritesExisting(t *testing.T) {
	s, ctx := openTestStore(t)

	first := Run{RunID: "run-1", ClusterCount: 1, Assignments: []types.ClusterID{0, 0}}
	second := Run{RunID: "run-1", ClusterCount: 2, Assignments: []types.ClusterID{0, 1}}

	if err := s.SaveRun(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SaveRun(ctx, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.LoadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ClusterCount != 2 || got.Assignments[1] != 1 {
		t.Fatalf("expected the second save to win, got %+v", got)
	}
}

func TestLoadRunMissingReturnsErrRunNotFound(t *testing.T) {
	s, ctx := openTestStore(t)

	_, err := s.LoadRun(ctx, "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsReturnsEverySavedRun(t *testing.T) {
	s, ctx := openTestStore(t)

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.SaveRun(ctx, Run{RunID: id, ClusterCount: 0, Assignments: nil}); err != nil {
			t.Fatalf("unexpected error saving %q: %v", id, err)
		}
	}

	ids, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 run ids, got %d", len(ids))
	}
}

func TestOperationsAfterCloseReturnErrStoreClosed(t *testing.T) {
	s, ctx := openTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	if err := s.SaveRun(ctx, Run{RunID: "x"}); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.LoadRun(ctx, "x"); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.ListRuns(ctx); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}
