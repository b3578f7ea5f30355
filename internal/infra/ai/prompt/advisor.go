package prompt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/bryanwahyu/biaslens/internal/domain/ai"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a fairness reviewer for tabular machine learning datasets. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- recommendations is an array of 1 to 5 short, concrete mitigation steps, most important first.
- Base every step on the metrics given. Do not invent metrics that were not provided.
- If the metrics show no meaningful disparity, return exactly ["No major bias detected."].

Schema (example with empty values):
{
  "recommendations": ["<string>"]
}`
}

// GetUserPrompt renders the metrics of one analysis and the rule-based baseline.
func GetUserPrompt(req ai.AdviceRequest) string {
	var b strings.Builder
	r := req.Result
	fmt.Fprintf(&b, "Sensitive attribute: %s (%s)\n", r.SensitiveAttribute, r.AttributeType)
	fmt.Fprintf(&b, "Rows: %d\n", r.Rows)
	fmt.Fprintf(&b, "Disparate impact: %s\n", formatMetric(r.DisparateImpact.Float()))
	fmt.Fprintf(&b, "Statistical parity difference: %s\n", formatMetric(r.ParityDifference.Float()))
	fmt.Fprintf(&b, "Risk level: %s\n", req.Risk.Label())
	b.WriteString("Group distribution:\n")
	for _, s := range r.GroupDistribution {
		fmt.Fprintf(&b, "- %s: %s\n", s.Group, formatMetric(s.Fraction))
	}
	b.WriteString("Baseline recommendations:\n")
	for _, rec := range req.Baseline {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	b.WriteString("Refine the baseline into the JSON per schema.")
	return b.String()
}

// Advice matches the schema used by the system prompt.
type Advice struct {
	Recommendations []string `json:"recommendations"`
}

// ParseAdvice decodes the model answer and drops blank entries.
func ParseAdvice(content string) ([]string, error) {
	var a Advice
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &a); err != nil {
		return nil, fmt.Errorf("failed to decode advice: %w", err)
	}
	out := make([]string, 0, len(a.Recommendations))
	for _, rec := range a.Recommendations {
		if rec = strings.TrimSpace(rec); rec != "" {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, ai.ErrEmptyAdvice
	}
	return out, nil
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "unknown"
	}
	return fmt.Sprintf("%.4f", v)
}
