package analysis

// ChartSeries is the bar chart data: one category per group, values in percent.
type ChartSeries struct {
	Title      string    `json:"title"`
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
}

// Chart is a drawn chart. Close releases it; a closed chart is never drawn again.
type Chart interface {
	PNG() []byte
	Close()
}
