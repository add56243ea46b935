package harness

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"

	"github.com/jaboteur/Pmetrics/internal/posterior"
	"github.com/jaboteur/Pmetrics/internal/summary"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

// snapshotFlush is the magnitude below which snapshot values print as 0.
const snapshotFlush = 1e-12

// Snapshot renders a summary as stable text for golden comparison.
// Numbers use six significant digits; NaN prints as NA.
func Snapshot(name string, s *summary.FinalCycleSummary) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "method: %s\n", s.Method)
	fmt.Fprintf(&b, "par: %s\n", strings.Join(s.Par, " "))
	fmt.Fprintf(&b, "nsub: %d\n", s.NSub)
	if n, ok := s.GridPts.Get(); ok {
		fmt.Fprintf(&b, "gridpts: %d\n", n)
	} else {
		b.WriteString("gridpts: absent\n")
	}
	if v, ok := s.WParVol.Get(); ok {
		fmt.Fprintf(&b, "wparvol: %s\n", snapNum(v))
	} else {
		b.WriteString("wparvol: absent\n")
	}

	snapVector(&b, "pop_mean", s.PopMean)
	snapVector(&b, "pop_sd", s.PopSD)
	snapVector(&b, "pop_var", s.PopVar)
	snapVector(&b, "pop_cv", s.PopCV)
	snapVector(&b, "pop_median", s.PopMedian)
	snapMatrix(&b, "pop_cov", s.PopCov)
	snapMatrix(&b, "pop_cor", s.PopCor)

	if t, ok := s.PopPoints.Get(); ok {
		fmt.Fprintf(&b, "pop_points: %d rows, total prob %s\n", len(t.Values), snapNum(t.TotalProb()))
	} else {
		b.WriteString("pop_points: absent\n")
	}
	if t, ok := s.PostPoints.Get(); ok {
		fmt.Fprintf(&b, "post_points: %d rows\n", len(t.Points))
	} else {
		b.WriteString("post_points: absent\n")
	}

	snapSubjects(&b, "post_mean", s.PostMean)
	snapSubjects(&b, "post_sd", s.PostSD)
	snapSubjects(&b, "post_var", s.PostVar)
	snapSubjectMatrices(&b, "post_cov", s.PostCov.Get)
	snapSubjectMatrices(&b, "post_cor", s.PostCor.Get)

	b.WriteString("shrinkage:\n")
	for _, r := range s.Shrinkage {
		fmt.Fprintf(&b, "  %s: %s var_ebd=%s pop_var=%s\n", r.Parameter, snapNum(r.Shrinkage), snapNum(r.VarEBD), snapNum(r.PopVar))
	}

	if fixed, ok := s.PopRanFix.Get(); ok {
		b.WriteString("pop_ran_fix:")
		for _, f := range fixed {
			fmt.Fprintf(&b, " %s=%s", f.Name, snapNum(f.Value))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("pop_ran_fix: absent\n")
	}

	return []byte(b.String())
}

func snapNum(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NA"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.Abs(v) < snapshotFlush:
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func snapRow(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = snapNum(f)
	}
	return strings.Join(parts, " ")
}

func snapVector(b *strings.Builder, label string, v []float64) {
	fmt.Fprintf(b, "%s: %s\n", label, snapRow(v))
}

func snapMatrix(b *strings.Builder, label string, m wstat.Matrix) {
	fmt.Fprintf(b, "%s:\n", label)
	for i, row := range m.Rows() {
		fmt.Fprintf(b, "  %s: %s\n", m.Names[i], snapRow(row))
	}
}

func snapSubjects(b *strings.Builder, label string, t posterior.SubjectTable) {
	fmt.Fprintf(b, "%s:\n", label)
	for i, row := range t.Values {
		fmt.Fprintf(b, "  %s: %s\n", t.IDs[i], snapRow(row))
	}
}

func snapSubjectMatrices(b *strings.Builder, label string, get func() ([]posterior.SubjectMatrix, bool)) {
	ms, ok := get()
	if !ok {
		fmt.Fprintf(b, "%s: absent\n", label)
		return
	}
	fmt.Fprintf(b, "%s: %d subjects\n", label, len(ms))
}

// RunWithGolden executes a scenario and compares its summary snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if result.Summary != nil {
		AssertGolden(t, scenario.Name, result.Summary)
	}
	return result, nil
}

// AssertGolden compares a summary snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, s *summary.FinalCycleSummary) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, s))
}

// CheckGolden compares a snapshot with dir/<name>.golden outside of go test.
// With update set the golden file is (re)written instead.
// Returns a line diff (-golden +actual), empty when they match.
func CheckGolden(dir, name string, s *summary.FinalCycleSummary, update bool) (string, error) {
	path := filepath.Join(dir, name+".golden")
	actual := Snapshot(name, s)

	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			return "", fmt.Errorf("write golden file: %w", err)
		}
		return "", nil
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read golden file: %w", err)
	}
	return cmp.Diff(strings.Split(string(expected), "\n"), strings.Split(string(actual), "\n")), nil
}
