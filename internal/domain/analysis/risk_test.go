package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		di   float64
		spd  float64
		want RiskLevel
	}{
		{"fair", 0.95, 0.02, RiskFair},
		{"boundaries are fair", 0.8, 0.1, RiskFair},
		{"di potential", 0.7, 0.05, RiskPotential},
		{"spd potential", 0.9, 0.15, RiskPotential},
		{"high boundary di is potential", 0.6, 0.0, RiskPotential},
		{"high boundary spd is potential", 1.0, 0.2, RiskPotential},
		{"di high", 0.5, 0.0, RiskHigh},
		{"spd high", 1.0, 0.25, RiskHigh},
		{"high wins over potential", 0.7, 0.3, RiskHigh},
		{"both missing", nan, nan, RiskFair},
		{"missing di uses spd", nan, 0.15, RiskPotential},
		{"missing spd uses di", 0.4, nan, RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.di, tt.spd))
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	rank := map[RiskLevel]int{RiskFair: 0, RiskPotential: 1, RiskHigh: 2}
	for spd := 0.0; spd <= 0.4; spd += 0.01 {
		prev := -1
		for di := 1.2; di >= 0; di -= 0.01 {
			r := rank[Classify(di, spd)]
			assert.GreaterOrEqual(t, r, prev, "di=%.2f spd=%.2f", di, spd)
			prev = r
		}
	}
}

func TestClassifyResultMissingMetrics(t *testing.T) {
	r := &AnalysisResult{ParityDifference: Known(0.3)}
	assert.Equal(t, RiskHigh, ClassifyResult(r))
	assert.Equal(t, RiskFair, ClassifyResult(&AnalysisResult{}))
}

func TestRiskLabels(t *testing.T) {
	assert.Equal(t, "Fair", RiskFair.Label())
	assert.Equal(t, "Potential Bias Risk", RiskPotential.Label())
	assert.Equal(t, "High Bias Risk", RiskHigh.Label())
}
