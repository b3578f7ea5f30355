package present

import (
	"log"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// Display holds the current display model and its chart.
// It is not safe for concurrent use; the session controller serialises access.
type Display struct {
	charts analysis.ChartRenderer
	model  *DisplayModel
	chart  analysis.Chart
}

// NewDisplay accepts a nil renderer, in which case no chart is drawn.
func NewDisplay(charts analysis.ChartRenderer) *Display {
	return &Display{charts: charts}
}

// Show replaces everything shown. The previous chart is closed before a new one is drawn.
func (d *Display) Show(m DisplayModel) {
	d.closeChart()
	d.model = &m

	if d.charts == nil || len(m.Chart.Categories) == 0 {
		return
	}
	c, err := d.charts.Render(m.Chart)
	if err != nil {
		log.Printf("chart render failed categories=%d err=%v", len(m.Chart.Categories), err)
		return
	}
	d.chart = c
}

// Model returns a copy of the current model, or nil before the first Show.
func (d *Display) Model() *DisplayModel {
	if d.model == nil {
		return nil
	}
	m := *d.model
	return &m
}

// ChartPNG returns the current chart image.
func (d *Display) ChartPNG() ([]byte, bool) {
	if d.chart == nil {
		return nil, false
	}
	png := d.chart.PNG()
	return png, len(png) > 0
}

// Close releases the chart.
func (d *Display) Close() {
	d.closeChart()
}

func (d *Display) closeChart() {
	if d.chart != nil {
		d.chart.Close()
		d.chart = nil
	}
}
