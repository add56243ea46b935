package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/jaboteur/Pmetrics/internal/posterior"
	"github.com/jaboteur/Pmetrics/internal/summary"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Field    string // Summary part checked
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Diff     string // cmp.Diff output, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Field != "" {
		fmt.Fprintf(&buf, " %s", e.Field)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diff != "" {
		fmt.Fprintf(&buf, "  Diff (-want +got):\n%s", e.Diff)
	}

	return buf.String()
}

// approxEqual compares floats within tol scaled by the larger magnitude.
// NaN equals NaN and infinities equal infinities of the same sign.
func approxEqual(tol float64) cmp.Option {
	return cmp.Comparer(func(a, b float64) bool {
		switch {
		case math.IsNaN(a) || math.IsNaN(b):
			return math.IsNaN(a) && math.IsNaN(b)
		case math.IsInf(a, 0) || math.IsInf(b, 0):
			return a == b
		}
		scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
		return math.Abs(a-b) <= tol*scale
	})
}

// EvaluateAssertions checks every assertion against s.
// Returns one message per failed assertion.
func EvaluateAssertions(s *summary.FinalCycleSummary, assertions []Assertion, tol float64) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(s, a, tol); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(s *summary.FinalCycleSummary, a Assertion, tol float64) error {
	switch a.Type {
	case AssertMethod:
		if !strings.EqualFold(string(s.Method), a.Method) {
			return &AssertionError{Type: a.Type, Expected: a.Method, Actual: string(s.Method)}
		}
		return nil
	case AssertScalar:
		got, ok := scalarField(s, a.Field)
		if !ok {
			return &AssertionError{Type: a.Type, Field: a.Field, Expected: fmt.Sprint(*a.Value), Actual: "absent"}
		}
		return compare(a, *a.Value, got, tol)
	case AssertVector:
		return compare(a, a.Values, vectorField(s, a.Field), tol)
	case AssertMatrix:
		m, ok := matrixField(s, a.Field, a.Subject)
		if !ok {
			return &AssertionError{Type: a.Type, Field: a.Field, Expected: "matrix", Actual: "absent or unknown subject " + a.Subject}
		}
		return compare(a, a.Matrix, m.Rows(), tol)
	case AssertSubject:
		row, ok := subjectRow(subjectField(s, a.Field), a.Subject)
		if !ok {
			return &AssertionError{Type: a.Type, Field: a.Field, Expected: "subject " + a.Subject, Actual: "not found"}
		}
		return compare(a, a.Values, row, tol)
	case AssertShrinkage:
		for _, r := range s.Shrinkage {
			if r.Parameter != a.Parameter {
				continue
			}
			got := r.Shrinkage
			switch a.Field {
			case "var_ebd":
				got = r.VarEBD
			case "pop_var":
				got = r.PopVar
			}
			return compare(a, *a.Value, got, tol)
		}
		return &AssertionError{Type: a.Type, Field: a.Field, Expected: "parameter " + a.Parameter, Actual: "not found"}
	case AssertAbsent, AssertPresent:
		present := optionalPresent(s, a.Field)
		if present != (a.Type == AssertPresent) {
			return &AssertionError{Type: a.Type, Field: a.Field, Expected: a.Type, Actual: presence(present)}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func compare(a Assertion, want, got any, tol float64) error {
	if cmp.Equal(want, got, approxEqual(tol)) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Field:    strings.TrimSpace(a.Field + " " + a.Subject + a.Parameter),
		Expected: fmt.Sprint(want),
		Actual:   fmt.Sprint(got),
		Diff:     cmp.Diff(want, got, approxEqual(tol)),
	}
}

func presence(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}

func scalarField(s *summary.FinalCycleSummary, field string) (float64, bool) {
	switch field {
	case "gridpts":
		n, ok := s.GridPts.Get()
		return float64(n), ok
	case "wparvol":
		return s.WParVol.Get()
	case "nsub":
		return float64(s.NSub), true
	}
	return 0, false
}

func vectorField(s *summary.FinalCycleSummary, field string) []float64 {
	switch field {
	case "pop_mean":
		return s.PopMean
	case "pop_sd":
		return s.PopSD
	case "pop_var":
		return s.PopVar
	case "pop_cv":
		return s.PopCV
	case "pop_median":
		return s.PopMedian
	}
	return nil
}

func matrixField(s *summary.FinalCycleSummary, field, subject string) (wstat.Matrix, bool) {
	switch field {
	case "pop_cov":
		return s.PopCov, true
	case "pop_cor":
		return s.PopCor, true
	case "post_cov", "post_cor":
		ms, ok := s.PostCov.Get()
		if field == "post_cor" {
			ms, ok = s.PostCor.Get()
		}
		if !ok {
			return wstat.Matrix{}, false
		}
		i := slices.IndexFunc(ms, func(m posterior.SubjectMatrix) bool { return m.SubjectID == subject })
		if i < 0 {
			return wstat.Matrix{}, false
		}
		return ms[i].Matrix, true
	}
	return wstat.Matrix{}, false
}

func subjectField(s *summary.FinalCycleSummary, field string) posterior.SubjectTable {
	switch field {
	case "post_sd":
		return s.PostSD
	case "post_var":
		return s.PostVar
	}
	return s.PostMean
}

func subjectRow(t posterior.SubjectTable, id string) ([]float64, bool) {
	i := slices.Index(t.IDs, id)
	if i < 0 {
		return nil, false
	}
	return t.Values[i], true
}

func optionalPresent(s *summary.FinalCycleSummary, field string) bool {
	switch field {
	case "pop_points":
		return s.PopPoints.Present()
	case "post_points":
		return s.PostPoints.Present()
	case "post_cov":
		return s.PostCov.Present()
	case "post_cor":
		return s.PostCor.Present()
	case "gridpts":
		return s.GridPts.Present()
	case "wparvol":
		return s.WParVol.Present()
	case "pop_ran_fix":
		return s.PopRanFix.Present()
	}
	return false
}
