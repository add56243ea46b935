package run

// Method tags the estimation engine a result came from.
type Method string

const (
	MethodNPAG Method = "NPAG"
	MethodIT2B Method = "IT2B"
)

// Result is the sealed union of parsed run results.
// Only *NPAGResult and *IT2BResult implement it.
type Result interface {
	Method() Method
	isResult()
}

// Bound is the [lower, upper] search range of one random parameter.
type Bound struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Width returns upper - lower.
func (b Bound) Width() float64 {
	return b.Upper - b.Lower
}

// PostDenRow is one active posterior point of one subject.
type PostDenRow struct {
	// Subject is the 1-based subject index into SubjectIDs.
	Subject int `json:"subject" yaml:"subject"`

	// Point is the 1-based index of the active posterior point.
	Point int `json:"point" yaml:"point"`

	// Values holds one value per random parameter.
	Values []float64 `json:"values" yaml:"values"`

	// Prob is the posterior density weight. Nil means missing.
	Prob *float64 `json:"prob" yaml:"prob"`
}

// NPAGResult is the final-cycle output of the non-parametric adaptive grid engine.
type NPAGResult struct {
	NVar int      `json:"nvar" yaml:"nvar"`
	Par  []string `json:"par" yaml:"par"`
	AB   []Bound  `json:"ab" yaml:"ab"`

	// IndPts selects the initial grid resolution (see grid.GridPoints).
	IndPts int `json:"indpts" yaml:"indpts"`

	// Corden rows are support points: NVar parameter values then the weight.
	Corden [][]float64 `json:"corden" yaml:"corden"`

	// PostDen is absent when the engine did not sample posteriors.
	PostDen Optional[[]PostDenRow] `json:"postden" yaml:"postden"`

	SubjectIDs []string    `json:"subject_ids" yaml:"subject_ids"`
	BMean      [][]float64 `json:"bmean" yaml:"bmean"`
	BSD        [][]float64 `json:"bsd" yaml:"bsd"`
	NSub       int         `json:"nsub" yaml:"nsub"`

	ParRanFix []string  `json:"par_ran_fix,omitempty" yaml:"par_ran_fix,omitempty"`
	ValRanFix []float64 `json:"val_ran_fix,omitempty" yaml:"val_ran_fix,omitempty"`
	NRanFix   int       `json:"n_ran_fix,omitempty" yaml:"n_ran_fix,omitempty"`
}

// Method implements Result.
func (*NPAGResult) Method() Method { return MethodNPAG }
func (*NPAGResult) isResult()      {}

// WeightColumn returns the index of the trailing weight column in Corden.
func (r *NPAGResult) WeightColumn() int {
	return r.NVar
}

// IT2BResult is the output of the iterative two-stage Bayesian engine.
type IT2BResult struct {
	NVar int      `json:"nvar" yaml:"nvar"`
	Par  []string `json:"par" yaml:"par"`
	AB   []Bound  `json:"ab" yaml:"ab"`

	// Per-cycle population moments, one row per cycle (cycle 1 is row 0).
	IMean [][]float64 `json:"imean" yaml:"imean"`
	ISD   [][]float64 `json:"isd" yaml:"isd"`
	IMed  [][]float64 `json:"imed" yaml:"imed"`
	ICV   [][]float64 `json:"icv" yaml:"icv"`

	// ICycTot is the 1-based index of the final cycle.
	ICycTot int `json:"icyctot" yaml:"icyctot"`

	// LPar and LSD are per-subject log-parameter point estimates and SDs.
	LPar [][]float64 `json:"lpar" yaml:"lpar"`
	LSD  [][]float64 `json:"lsd" yaml:"lsd"`

	SubjectIDs []string `json:"subject_ids" yaml:"subject_ids"`
	NSub       int      `json:"nsub" yaml:"nsub"`
}

// Method implements Result.
func (*IT2BResult) Method() Method { return MethodIT2B }
func (*IT2BResult) isResult()      {}

// FinalCycle returns the 0-based row of the final cycle.
func (r *IT2BResult) FinalCycle() int {
	return r.ICycTot - 1
}
