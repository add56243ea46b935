package run

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidShape is wrapped by every shape violation reported by Validate.
var ErrInvalidShape = errors.New("invalid result shape")

// Validate checks the structural invariants of a result.
// It reports every violation found, joined into one error.
// Numeric oddities (weights not summing to 1, zero variance) are not shape errors.
func Validate(r Result) error {
	switch v := r.(type) {
	case *NPAGResult:
		if v == nil {
			return fmt.Errorf("%w: nil NPAG result", ErrInvalidShape)
		}
		return validateNPAG(v)
	case *IT2BResult:
		if v == nil {
			return fmt.Errorf("%w: nil IT2B result", ErrInvalidShape)
		}
		return validateIT2B(v)
	default:
		return fmt.Errorf("%w: unknown result kind %T", ErrInvalidShape, r)
	}
}

// indpts 1..6 are tabulated; larger values give (indpts-100)*80021 grid
// points, which is only positive above 100.
const (
	maxTabulatedIndPts = 6
	largeGridOffset    = 100
)

type shapeChecker struct {
	errs []error
}

func (c *shapeChecker) failf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidShape}, args...)...))
}

func (c *shapeChecker) err() error {
	return errors.Join(c.errs...)
}

func (c *shapeChecker) common(nvar int, par []string, ab []Bound, ids []string, nsub int) {
	if nvar < 1 {
		c.failf("nvar must be >= 1, got %d", nvar)
	}
	if len(par) != nvar {
		c.failf("par has %d names, nvar is %d", len(par), nvar)
	}
	if len(ab) != nvar {
		c.failf("ab has %d bounds, nvar is %d", len(ab), nvar)
	}
	for j, b := range ab {
		if b.Lower > b.Upper {
			c.failf("ab[%d]: lower %g exceeds upper %g", j, b.Lower, b.Upper)
		}
	}
	if nsub < 0 {
		c.failf("nsub must be >= 0, got %d", nsub)
	}
	if len(ids) != nsub {
		c.failf("subject_ids has %d entries, nsub is %d", len(ids), nsub)
	}
}

func (c *shapeChecker) table(name string, rows [][]float64, nrow, ncol int) {
	if len(rows) != nrow {
		c.failf("%s has %d rows, want %d", name, len(rows), nrow)
	}
	for i, row := range rows {
		if len(row) != ncol {
			c.failf("%s[%d] has %d columns, want %d", name, i, len(row), ncol)
		}
	}
}

func validateNPAG(r *NPAGResult) error {
	c := &shapeChecker{}
	c.common(r.NVar, r.Par, r.AB, r.SubjectIDs, r.NSub)

	if r.IndPts < 1 {
		c.failf("indpts must be >= 1, got %d", r.IndPts)
	} else if r.IndPts > maxTabulatedIndPts && r.IndPts <= largeGridOffset {
		c.failf("indpts %d resolves to a non-positive grid size", r.IndPts)
	}
	if len(r.Corden) == 0 {
		c.failf("corden has no support points")
	}
	for i, row := range r.Corden {
		if len(row) != r.NVar+1 {
			c.failf("corden[%d] has %d columns, want %d", i, len(row), r.NVar+1)
			continue
		}
		if w := row[r.WeightColumn()]; w < 0 || math.IsNaN(w) {
			c.failf("corden[%d] weight %g is not a non-negative number", i, w)
		}
	}
	c.table("bmean", r.BMean, r.NSub, r.NVar)
	c.table("bsd", r.BSD, r.NSub, r.NVar)

	if rows, ok := r.PostDen.Get(); ok {
		for i, row := range rows {
			if row.Subject < 1 || row.Subject > r.NSub {
				c.failf("postden[%d] subject %d out of range 1..%d", i, row.Subject, r.NSub)
			}
			if len(row.Values) != r.NVar {
				c.failf("postden[%d] has %d values, want %d", i, len(row.Values), r.NVar)
			}
			if row.Prob != nil && *row.Prob < 0 {
				c.failf("postden[%d] prob %g is negative", i, *row.Prob)
			}
		}
	}

	if len(r.ParRanFix) != r.NRanFix {
		c.failf("par_ran_fix has %d names, n_ran_fix is %d", len(r.ParRanFix), r.NRanFix)
	}
	if len(r.ValRanFix) != r.NRanFix {
		c.failf("val_ran_fix has %d values, n_ran_fix is %d", len(r.ValRanFix), r.NRanFix)
	}
	return c.err()
}

func validateIT2B(r *IT2BResult) error {
	c := &shapeChecker{}
	c.common(r.NVar, r.Par, r.AB, r.SubjectIDs, r.NSub)

	ncyc := len(r.IMean)
	if r.ICycTot < 1 || r.ICycTot > ncyc {
		c.failf("icyctot %d out of range 1..%d", r.ICycTot, ncyc)
	}
	c.table("imean", r.IMean, ncyc, r.NVar)
	c.table("isd", r.ISD, ncyc, r.NVar)
	c.table("imed", r.IMed, ncyc, r.NVar)
	c.table("icv", r.ICV, ncyc, r.NVar)
	c.table("lpar", r.LPar, r.NSub, r.NVar)
	c.table("lsd", r.LSD, r.NSub, r.NVar)
	return c.err()
}
