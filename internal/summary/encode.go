package summary

import (
	"encoding/json"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/jaboteur/Pmetrics/internal/grid"
	"github.com/jaboteur/Pmetrics/internal/posterior"
	"github.com/jaboteur/Pmetrics/internal/run"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

// number encodes NaN as null and infinities as "Inf" / "-Inf".
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte("null"), nil
	case math.IsInf(f, 1):
		return []byte(`"Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

type summaryJSON struct {
	Method    string                         `json:"method"`
	Par       []string                       `json:"par"`
	NSub      int                            `json:"nsub"`
	GridPts   run.Optional[int]              `json:"gridpts"`
	WParVol   run.Optional[number]           `json:"wparvol"`
	AB        []run.Bound                    `json:"ab"`
	PopRanFix run.Optional[[]fixedParamJSON] `json:"pop_ran_fix"`

	PopMean   []number   `json:"pop_mean"`
	PopSD     []number   `json:"pop_sd"`
	PopVar    []number   `json:"pop_var"`
	PopCV     []number   `json:"pop_cv"`
	PopMedian []number   `json:"pop_median"`
	PopCov    matrixJSON `json:"pop_cov"`
	PopCor    matrixJSON `json:"pop_cor"`

	PopPoints  run.Optional[popPointsJSON]  `json:"pop_points"`
	PostPoints run.Optional[postPointsJSON] `json:"post_points"`

	PostMean subjectTableJSON                  `json:"post_mean"`
	PostSD   subjectTableJSON                  `json:"post_sd"`
	PostVar  subjectTableJSON                  `json:"post_var"`
	PostCov  run.Optional[[]subjectMatrixJSON] `json:"post_cov"`
	PostCor  run.Optional[[]subjectMatrixJSON] `json:"post_cor"`

	Shrinkage []shrinkageJSON `json:"shrinkage"`
}

type fixedParamJSON struct {
	Name  string `json:"name"`
	Value number `json:"value"`
}

type matrixJSON struct {
	Names []string   `json:"names"`
	Rows  [][]number `json:"rows"`
}

type popPointsJSON struct {
	Par  []string       `json:"par"`
	Rows []popPointJSON `json:"rows"`
}

type popPointJSON struct {
	Values []number `json:"values"`
	Prob   number   `json:"prob"`
}

type postPointsJSON struct {
	Par  []string        `json:"par"`
	Rows []postPointJSON `json:"rows"`
}

type postPointJSON struct {
	ID     string   `json:"id"`
	Point  int      `json:"point"`
	Values []number `json:"values"`
	Prob   number   `json:"prob"`
}

type subjectTableJSON struct {
	Par  []string         `json:"par"`
	Rows []subjectRowJSON `json:"rows"`
}

type subjectRowJSON struct {
	ID     string   `json:"id"`
	Values []number `json:"values"`
}

type subjectMatrixJSON struct {
	ID     string     `json:"id"`
	Matrix matrixJSON `json:"matrix"`
}

type shrinkageJSON struct {
	Parameter string `json:"parameter"`
	Shrinkage number `json:"shrinkage"`
	VarEBD    number `json:"var_ebd"`
	PopVar    number `json:"pop_var"`
}

// MarshalJSON encodes the summary with snake_case keys in a fixed field
// order. Absent optional parts encode as null, NaN as null, and
// infinities as "Inf"/"-Inf". Names and ids are NFC-normalised so equal
// summaries encode to identical bytes.
func (s *FinalCycleSummary) MarshalJSON() ([]byte, error) {
	out := summaryJSON{
		Method:    string(s.Method),
		Par:       names(s.Par),
		NSub:      s.NSub,
		GridPts:   s.GridPts,
		WParVol:   run.Map(s.WParVol, func(v float64) number { return number(v) }),
		AB:        s.AB,
		PopRanFix: run.Map(s.PopRanFix, encodeFixed),
		PopMean:   numbers(s.PopMean),
		PopSD:     numbers(s.PopSD),
		PopVar:    numbers(s.PopVar),
		PopCV:     numbers(s.PopCV),
		PopMedian: numbers(s.PopMedian),
		PopCov:    encodeMatrix(s.PopCov),
		PopCor:    encodeMatrix(s.PopCor),

		PopPoints:  run.Map(s.PopPoints, encodePopPoints),
		PostPoints: run.Map(s.PostPoints, encodePostPoints),
		PostMean:   encodeSubjectTable(s.PostMean),
		PostSD:     encodeSubjectTable(s.PostSD),
		PostVar:    encodeSubjectTable(s.PostVar),
		PostCov:    run.Map(s.PostCov, encodeSubjectMatrices),
		PostCor:    run.Map(s.PostCor, encodeSubjectMatrices),
	}
	out.Shrinkage = make([]shrinkageJSON, len(s.Shrinkage))
	for i, r := range s.Shrinkage {
		out.Shrinkage[i] = shrinkageJSON{
			Parameter: norm.NFC.String(r.Parameter),
			Shrinkage: number(r.Shrinkage),
			VarEBD:    number(r.VarEBD),
			PopVar:    number(r.PopVar),
		}
	}
	return json.Marshal(out)
}

func numbers(v []float64) []number {
	out := make([]number, len(v))
	for i, f := range v {
		out[i] = number(f)
	}
	return out
}

func names(v []string) []string {
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = norm.NFC.String(s)
	}
	return out
}

func encodeFixed(fixed []FixedParam) []fixedParamJSON {
	out := make([]fixedParamJSON, len(fixed))
	for i, f := range fixed {
		out[i] = fixedParamJSON{Name: norm.NFC.String(f.Name), Value: number(f.Value)}
	}
	return out
}

func encodeMatrix(m wstat.Matrix) matrixJSON {
	rows := m.Rows()
	out := matrixJSON{Names: names(m.Names), Rows: make([][]number, len(rows))}
	for i, row := range rows {
		out.Rows[i] = numbers(row)
	}
	return out
}

func encodePopPoints(t grid.PointTable) popPointsJSON {
	out := popPointsJSON{Par: names(t.Par), Rows: make([]popPointJSON, len(t.Values))}
	for i, row := range t.Values {
		out.Rows[i] = popPointJSON{Values: numbers(row), Prob: number(t.Prob[i])}
	}
	return out
}

func encodePostPoints(t posterior.PointTable) postPointsJSON {
	out := postPointsJSON{Par: names(t.Par), Rows: make([]postPointJSON, len(t.Points))}
	for i, p := range t.Points {
		out.Rows[i] = postPointJSON{
			ID:     norm.NFC.String(p.SubjectID),
			Point:  p.Index,
			Values: numbers(p.Values),
			Prob:   number(p.Prob),
		}
	}
	return out
}

func encodeSubjectTable(t posterior.SubjectTable) subjectTableJSON {
	out := subjectTableJSON{Par: names(t.Par), Rows: make([]subjectRowJSON, len(t.Values))}
	for i, row := range t.Values {
		out.Rows[i] = subjectRowJSON{ID: norm.NFC.String(t.IDs[i]), Values: numbers(row)}
	}
	return out
}

func encodeSubjectMatrices(ms []posterior.SubjectMatrix) []subjectMatrixJSON {
	out := make([]subjectMatrixJSON, len(ms))
	for i, m := range ms {
		out[i] = subjectMatrixJSON{ID: norm.NFC.String(m.SubjectID), Matrix: encodeMatrix(m.Matrix)}
	}
	return out
}
