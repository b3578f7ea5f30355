package advice

import (
	"context"
	"log"
	"time"

	"github.com/bryanwahyu/biaslens/internal/domain/ai"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 20 * time.Second

// Service refines the rule recommendations through an optional ai.Client.
type Service struct {
	client ai.Client

	// Timeout caps each Advise call; zero means DefaultTimeout.
	Timeout time.Duration
}

// NewService accepts a nil client, in which case only the rules are used.
func NewService(client ai.Client) *Service {
	return &Service{client: client, Timeout: DefaultTimeout}
}

// Recommend never fails: any provider error falls back to the rule output.
func (s *Service) Recommend(ctx context.Context, r *analysis.AnalysisResult) []string {
	baseline := Rules(r)
	if s.client == nil || r == nil {
		return baseline
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	refined, err := s.client.Advise(ctx, ai.AdviceRequest{
		Result:   r,
		Risk:     analysis.ClassifyResult(r),
		Baseline: baseline,
	})
	if err != nil {
		log.Printf("advisor fallback attribute=%s err=%v", r.SensitiveAttribute, err)
		return baseline
	}
	if len(refined) == 0 {
		return baseline
	}
	return refined
}
