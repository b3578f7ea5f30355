package analysis

import "math"

// RiskLevel is derived from the metrics of one result and never stored on its own.
type RiskLevel string

const (
	RiskFair      RiskLevel = "fair"
	RiskPotential RiskLevel = "potential"
	RiskHigh      RiskLevel = "high"
)

// Thresholds of the four-fifths style policy.
const (
	HighImpactThreshold      = 0.6
	HighParityThreshold      = 0.2
	PotentialImpactThreshold = 0.8
	PotentialParityThreshold = 0.1
)

// Label is the text shown next to the risk indicator.
func (l RiskLevel) Label() string {
	switch l {
	case RiskHigh:
		return "High Bias Risk"
	case RiskPotential:
		return "Potential Bias Risk"
	default:
		return "Fair"
	}
}

// Classify maps the two metrics to a risk level, high taking precedence.
// A NaN (missing) metric never meets a threshold.
func Classify(disparateImpact, parityDifference float64) RiskLevel {
	switch {
	case below(disparateImpact, HighImpactThreshold) || above(parityDifference, HighParityThreshold):
		return RiskHigh
	case below(disparateImpact, PotentialImpactThreshold) || above(parityDifference, PotentialParityThreshold):
		return RiskPotential
	default:
		return RiskFair
	}
}

// ClassifyResult classifies a result, feeding missing metrics as NaN.
func ClassifyResult(r *AnalysisResult) RiskLevel {
	return Classify(r.DisparateImpact.Float(), r.ParityDifference.Float())
}

func below(v, limit float64) bool { return !math.IsNaN(v) && v < limit }

func above(v, limit float64) bool { return !math.IsNaN(v) && v > limit }
