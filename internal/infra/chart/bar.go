// Package chart draws the group distribution as a PNG bar chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

const (
	minWidth   = 480
	height     = 400
	barWidth   = 48
	barSpacing = 24
	sideMargin = 120
)

var ErrEmptySeries = errors.New("chart series has no categories")

// Renderer implements analysis.ChartRenderer with go-chart.
type Renderer struct{}

// NewRenderer returns a bar chart renderer.
func NewRenderer() *Renderer { return &Renderer{} }

func (Renderer) Render(series analysis.ChartSeries) (analysis.Chart, error) {
	if len(series.Categories) == 0 {
		return nil, ErrEmptySeries
	}
	if len(series.Categories) != len(series.Values) {
		return nil, fmt.Errorf("chart series mismatch: %d categories, %d values", len(series.Categories), len(series.Values))
	}

	bars := make([]chart.Value, len(series.Values))
	for i, v := range series.Values {
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s (%.2f%%)", series.Categories[i], v),
			Value: v,
		}
	}

	width := sideMargin + len(bars)*(barWidth+barSpacing)
	if width < minWidth {
		width = minWidth
	}
	graph := chart.BarChart{
		Title:      series.Title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Name:  "%",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering bar chart: %w", err)
	}
	return &Image{data: buf.Bytes()}, nil
}

// Image is a rendered PNG.
type Image struct {
	data []byte
}

func (i *Image) PNG() []byte { return i.data }

func (i *Image) Close() { i.data = nil }
