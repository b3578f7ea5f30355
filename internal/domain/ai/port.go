package ai

import (
	"context"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// AdviceRequest carries one analysis result and the rule-based advice already derived from it.
type AdviceRequest struct {
	Result   *analysis.AnalysisResult
	Risk     analysis.RiskLevel
	Baseline []string
}

// Client asks a language model to refine mitigation advice.
type Client interface {
	Advise(ctx context.Context, req AdviceRequest) ([]string, error)
}
