package summary

import (
	"math"

	"go.uber.org/zap"

	"github.com/jaboteur/Pmetrics/internal/grid"
	"github.com/jaboteur/Pmetrics/internal/posterior"
	"github.com/jaboteur/Pmetrics/internal/run"
	"github.com/jaboteur/Pmetrics/internal/shrinkage"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

// probTolerance is how far a probability total may drift from 1 before a
// data-quality warning is logged.
const probTolerance = 1e-2

// FixedParam is a non-random parameter carried through from an NPAG run.
type FixedParam struct {
	Name  string
	Value float64
}

// FinalCycleSummary is the unified statistical summary of a final cycle.
type FinalCycleSummary struct {
	Method run.Method
	Par    []string

	PopMean   []float64
	PopSD     []float64
	PopVar    []float64
	PopCV     []float64
	PopMedian []float64
	PopCov    wstat.Matrix
	PopCor    wstat.Matrix

	PopPoints  run.Optional[grid.PointTable]
	PostPoints run.Optional[posterior.PointTable]

	PostMean posterior.SubjectTable
	PostSD   posterior.SubjectTable
	PostVar  posterior.SubjectTable
	PostCov  run.Optional[[]posterior.SubjectMatrix]
	PostCor  run.Optional[[]posterior.SubjectMatrix]

	Shrinkage []shrinkage.Row

	GridPts   run.Optional[int]
	WParVol   run.Optional[float64]
	NSub      int
	AB        []run.Bound
	PopRanFix run.Optional[[]FixedParam]
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Summarizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Summarizer computes final-cycle summaries. It holds no per-call state and
// is safe for concurrent use.
type Summarizer struct {
	logger *zap.Logger
}

// New creates a Summarizer. Without WithLogger, warnings are discarded.
func New(opts ...Option) *Summarizer {
	s := &Summarizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize computes a summary with a Summarizer that discards warnings.
func Summarize(r run.Result) (*FinalCycleSummary, error) {
	return New().Summarize(r)
}

// Summarize computes the final-cycle summary of r.
// Returns an UnsupportedInputKind error when r is neither a non-nil
// *run.NPAGResult nor a non-nil *run.IT2BResult.
func (s *Summarizer) Summarize(r run.Result) (*FinalCycleSummary, error) {
	switch v := r.(type) {
	case *run.NPAGResult:
		if v == nil {
			return nil, NewUnsupportedInputKindError(r)
		}
		if err := run.Validate(v); err != nil {
			return nil, NewInvalidInputError(string(run.MethodNPAG), err)
		}
		return s.summarizeNPAG(v), nil
	case *run.IT2BResult:
		if v == nil {
			return nil, NewUnsupportedInputKindError(r)
		}
		if err := run.Validate(v); err != nil {
			return nil, NewInvalidInputError(string(run.MethodIT2B), err)
		}
		return s.summarizeIT2B(v), nil
	default:
		return nil, NewUnsupportedInputKindError(r)
	}
}

func (s *Summarizer) summarizeNPAG(r *run.NPAGResult) *FinalCycleSummary {
	pop := grid.Aggregate(grid.InputFromNPAG(r))
	if total := pop.Points.TotalProb(); math.Abs(total-1) > probTolerance {
		s.logger.Warn("support point probabilities do not sum to 1",
			zap.Float64("total", total),
			zap.Int("gridpts", pop.GridPts),
			zap.Int("points", len(pop.Points.Prob)))
	}

	post := posterior.AggregateNPAG(posterior.NPAGInput{
		Par:        r.Par,
		SubjectIDs: r.SubjectIDs,
		PostDen:    r.PostDen,
		BMean:      r.BMean,
		BSD:        r.BSD,
		WParVol:    pop.WParVol,
	})
	if table, ok := post.Points.Get(); ok {
		s.checkPosteriorTotals(table)
	}

	sum := &FinalCycleSummary{
		Method:     run.MethodNPAG,
		Par:        r.Par,
		PopMean:    pop.Mean,
		PopSD:      pop.SD,
		PopVar:     pop.Var,
		PopCV:      pop.CV,
		PopMedian:  pop.Median,
		PopCov:     pop.Cov,
		PopCor:     pop.Cor,
		PopPoints:  run.Some(pop.Points),
		PostPoints: post.Points,
		PostMean:   post.Mean,
		PostSD:     post.SD,
		PostVar:    post.Var,
		PostCov:    post.Cov,
		PostCor:    post.Cor,
		Shrinkage:  shrinkage.Compute(r.Par, pop.Var, post.Var.Values),
		GridPts:    run.Some(pop.GridPts),
		WParVol:    run.Some(pop.WParVol),
		NSub:       r.NSub,
		AB:         r.AB,
		PopRanFix:  run.None[[]FixedParam](),
	}
	if r.NRanFix > 0 {
		fixed := make([]FixedParam, r.NRanFix)
		for i := range fixed {
			fixed[i] = FixedParam{Name: r.ParRanFix[i], Value: r.ValRanFix[i]}
		}
		sum.PopRanFix = run.Some(fixed)
	}
	return sum
}

func (s *Summarizer) summarizeIT2B(r *run.IT2BResult) *FinalCycleSummary {
	final := r.FinalCycle()
	popSD := clone(r.ISD[final])
	popVar := make([]float64, len(popSD))
	for j, sd := range popSD {
		popVar[j] = sd * sd
	}
	cov := wstat.Diagonal(popVar)

	post := posterior.AggregateIT2B(r)
	return &FinalCycleSummary{
		Method:     run.MethodIT2B,
		Par:        r.Par,
		PopMean:    clone(r.IMean[final]),
		PopSD:      popSD,
		PopVar:     popVar,
		PopCV:      clone(r.ICV[final]),
		PopMedian:  clone(r.IMed[final]),
		PopCov:     wstat.NewMatrix(r.Par, cov),
		PopCor:     wstat.NewMatrix(r.Par, wstat.Cov2Cor(cov)),
		PopPoints:  run.None[grid.PointTable](),
		PostPoints: post.Points,
		PostMean:   post.Mean,
		PostSD:     post.SD,
		PostVar:    post.Var,
		PostCov:    post.Cov,
		PostCor:    post.Cor,
		Shrinkage:  shrinkage.Compute(r.Par, popVar, post.Var.Values),
		GridPts:    run.None[int](),
		WParVol:    run.None[float64](),
		NSub:       r.NSub,
		AB:         r.AB,
		PopRanFix:  run.None[[]FixedParam](),
	}
}

// checkPosteriorTotals warns about subjects whose posterior probabilities
// do not sum to 1.
func (s *Summarizer) checkPosteriorTotals(table posterior.PointTable) {
	totals := make(map[string]float64)
	var order []string
	for _, p := range table.Points {
		if _, seen := totals[p.SubjectID]; !seen {
			order = append(order, p.SubjectID)
		}
		totals[p.SubjectID] += p.Prob
	}
	for _, id := range order {
		if total := totals[id]; math.Abs(total-1) > probTolerance {
			s.logger.Warn("posterior probabilities do not sum to 1",
				zap.String("subject", id),
				zap.Float64("total", total))
		}
	}
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
