package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jaboteur/Pmetrics/internal/posterior"
	"github.com/jaboteur/Pmetrics/internal/summary"
	"github.com/jaboteur/Pmetrics/internal/wstat"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")
	colorMuted  = lipgloss.Color("#2C4A54")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numericStyle = cellStyle.Align(lipgloss.Right)
)

// renderSummary writes a human-readable report of one summary.
func renderSummary(w io.Writer, source string, s *summary.FinalCycleSummary) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  %s", s.Method, source)))

	meta := []string{
		fmt.Sprintf("nsub=%d", s.NSub),
		fmt.Sprintf("nvar=%d", len(s.Par)),
	}
	if n, ok := s.GridPts.Get(); ok {
		meta = append(meta, fmt.Sprintf("gridpts=%d", n))
	}
	if v, ok := s.WParVol.Get(); ok {
		meta = append(meta, "wparvol="+formatNum(v))
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Join(meta, "  ")))
	if fixed, ok := s.PopRanFix.Get(); ok && len(fixed) > 0 {
		parts := make([]string, len(fixed))
		for i, f := range fixed {
			parts[i] = f.Name + "=" + formatNum(f.Value)
		}
		fmt.Fprintln(w, mutedStyle.Render("fixed: "+strings.Join(parts, "  ")))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, titleStyle.Render("Population"))
	fmt.Fprintln(w, populationTable(s))
	fmt.Fprintln(w, titleStyle.Render("Covariance"))
	fmt.Fprintln(w, matrixTable(s.PopCov))
	fmt.Fprintln(w, titleStyle.Render("Correlation"))
	fmt.Fprintln(w, matrixTable(s.PopCor))
	fmt.Fprintln(w, titleStyle.Render("Posterior means"))
	fmt.Fprintln(w, subjectTable(s.PostMean))
}

// populationTable has one row per parameter. IQR needs the support-point
// distribution and is NA for IT2B.
func populationTable(s *summary.FinalCycleSummary) string {
	points, hasPoints := s.PopPoints.Get()

	t := newTable("parameter", "mean", "sd", "cv%", "median", "IQR", "shrinkage")
	for j, name := range s.Par {
		iqr := math.NaN()
		if hasPoints {
			iqr = wstat.IQR(points.Column(j), points.Prob)
		}
		shrink := math.NaN()
		if j < len(s.Shrinkage) {
			shrink = s.Shrinkage[j].Shrinkage
		}
		t.Row(name,
			formatNum(s.PopMean[j]),
			formatNum(s.PopSD[j]),
			formatNum(s.PopCV[j]),
			formatNum(s.PopMedian[j]),
			formatNum(iqr),
			formatNum(shrink),
		)
	}
	return t.String()
}

func matrixTable(m wstat.Matrix) string {
	t := newTable(append([]string{""}, m.Names...)...)
	for i, row := range m.Rows() {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, m.Names[i])
		for _, v := range row {
			cells = append(cells, formatNum(v))
		}
		t.Row(cells...)
	}
	return t.String()
}

func subjectTable(st posterior.SubjectTable) string {
	t := newTable(append([]string{"id"}, st.Par...)...)
	for i, row := range st.Values {
		cells := make([]string, 0, len(row)+1)
		cells = append(cells, st.IDs[i])
		for _, v := range row {
			cells = append(cells, formatNum(v))
		}
		t.Row(cells...)
	}
	return t.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numericStyle
			}
		})
}

// formatNum prints v with six significant digits. NaN is NA.
func formatNum(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NA"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
