package advice

import (
	"fmt"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// DominantShare is the group fraction above which a dataset counts as skewed.
const DominantShare = 0.7

// NoBiasDetected is the single recommendation for a clean result.
const NoBiasDetected = "No major bias detected."

// Rules derives mitigation steps from a result without calling anything external.
func Rules(r *analysis.AnalysisResult) []string {
	if r == nil {
		return []string{NoBiasDetected}
	}

	var recs []string
	if dominant, ok := dominantGroup(r.GroupDistribution); ok {
		recs = append(recs, fmt.Sprintf(
			"Rebalance the dataset: group %q makes up %.2f%% of rows (resample or reweight the other groups).",
			dominant.Group, dominant.Fraction*100))
	} else if r.DisparateImpact.Valid && r.DisparateImpact.Value < analysis.PotentialImpactThreshold {
		recs = append(recs, "Rebalance the dataset: resample or reweight under-represented groups.")
	}

	if r.ParityDifference.Valid && r.ParityDifference.Value > analysis.PotentialParityThreshold {
		recs = append(recs, "Adjust decision thresholds per group or retrain with a fairness constraint.")
	}

	if r.DisparateImpact.Valid && r.DisparateImpact.Value < analysis.HighImpactThreshold && r.SensitiveAttribute != "" {
		recs = append(recs, fmt.Sprintf(
			"Check for proxy features strongly correlated with %q and consider removing them.",
			r.SensitiveAttribute))
	}

	if len(recs) == 0 {
		return []string{NoBiasDetected}
	}
	return recs
}

func dominantGroup(d analysis.Distribution) (analysis.Share, bool) {
	var best analysis.Share
	found := false
	for _, s := range d {
		if s.Fraction > DominantShare && (!found || s.Fraction > best.Fraction) {
			best, found = s, true
		}
	}
	return best, found
}
