package store

import (
	"path/filepath"
	"testing"

	"github.com/jaboteur/Pmetrics/internal/summary"
	"github.com/jaboteur/Pmetrics/internal/testutil"
)

// createTestStore creates a new store in a temp dir with deterministic ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// npagSummary summarizes the three-point NPAG fixture.
func npagSummary(t *testing.T) *summary.FinalCycleSummary {
	t.Helper()
	s, err := summary.Summarize(testutil.NPAGThreePoints())
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}
	return s
}

// it2bSummary summarizes the ten-cycle IT2B fixture.
func it2bSummary(t *testing.T) *summary.FinalCycleSummary {
	t.Helper()
	s, err := summary.Summarize(testutil.IT2BTenCycles())
	if err != nil {
		t.Fatalf("Summarize() failed: %v", err)
	}
	return s
}
