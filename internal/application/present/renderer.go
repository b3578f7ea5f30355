// Package present turns an analysis result into what the user sees.
package present

import (
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

const chartTitle = "Group distribution (%)"

// Summary is the text part of the display: metrics, risk and recommendations.
type Summary struct {
	Rows             int                `json:"rows"`
	Attribute        string             `json:"attribute"`
	AttributeType    string             `json:"attribute_type"`
	DisparateImpact  *float64           `json:"disparate_impact"`
	ParityDifference *float64           `json:"statistical_parity_difference"`
	Explanation      string             `json:"explanation"`
	Risk             analysis.RiskLevel `json:"risk"`
	RiskLabel        string             `json:"risk_label"`
	// Incomplete is set when a metric was missing or not a number.
	Incomplete      bool     `json:"incomplete,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Cell is one table cell; Emphasis marks the sensitive-attribute column.
type Cell struct {
	Value    string `json:"value"`
	Emphasis bool   `json:"emphasis,omitempty"`
}

// Table is the dataset preview. Header and rows share the column order.
type Table struct {
	Header []Cell   `json:"header"`
	Rows   [][]Cell `json:"rows"`
}

// Empty reports whether there is nothing to show.
func (t Table) Empty() bool { return len(t.Header) == 0 }

// DisplayModel is everything shown for one result. It is always replaced as a whole.
type DisplayModel struct {
	Summary Summary              `json:"summary"`
	Chart   analysis.ChartSeries `json:"chart"`
	Table   Table                `json:"table"`
}

// Present builds the display model. It reads r and never modifies it.
func Present(r *analysis.AnalysisResult) DisplayModel {
	risk := analysis.ClassifyResult(r)
	return DisplayModel{
		Summary: Summary{
			Rows:             r.Rows,
			Attribute:        r.SensitiveAttribute,
			AttributeType:    string(r.AttributeType),
			DisparateImpact:  r.DisparateImpact.Ptr(),
			ParityDifference: r.ParityDifference.Ptr(),
			Explanation:      r.Explanation,
			Risk:             risk,
			RiskLabel:        risk.Label(),
			Incomplete:       !r.DisparateImpact.Valid || !r.ParityDifference.Valid,
		},
		Chart: ChartSeries(r.GroupDistribution),
		Table: PreviewTable(r.Columns, r.Preview, r.SensitiveAttribute),
	}
}

// ChartSeries keeps the payload order. Groups whose fraction is not a number are left out.
func ChartSeries(d analysis.Distribution) analysis.ChartSeries {
	series := analysis.ChartSeries{
		Title:      chartTitle,
		Categories: make([]string, 0, len(d)),
		Values:     make([]float64, 0, len(d)),
	}
	for _, s := range d {
		if math.IsNaN(s.Fraction) || math.IsInf(s.Fraction, 0) {
			continue
		}
		v, err := stats.Round(s.Fraction*100, 2)
		if err != nil {
			continue
		}
		series.Categories = append(series.Categories, s.Group)
		series.Values = append(series.Values, v)
	}
	return series
}

// PreviewTable lays out the preview rows in column order.
func PreviewTable(columns []string, rows []map[string]any, sensitive string) Table {
	if len(columns) == 0 {
		return Table{}
	}
	t := Table{
		Header: make([]Cell, len(columns)),
		Rows:   make([][]Cell, 0, len(rows)),
	}
	for i, col := range columns {
		t.Header[i] = Cell{Value: col, Emphasis: col == sensitive}
	}
	for _, row := range rows {
		cells := make([]Cell, len(columns))
		for i, col := range columns {
			cells[i] = Cell{Value: formatCell(row[col]), Emphasis: col == sensitive}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
