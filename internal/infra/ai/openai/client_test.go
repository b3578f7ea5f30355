package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/biaslens/internal/domain/ai"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

func adviceRequest() ai.AdviceRequest {
	return ai.AdviceRequest{
		Result: &analysis.AnalysisResult{
			SensitiveAttribute: "gender",
			DisparateImpact:    analysis.Known(0.55),
		},
		Risk:     analysis.RiskHigh,
		Baseline: []string{"Rebalance the dataset."},
	}
}

func TestAdvise(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"recommendations\": [\"Oversample the minority group.\"]}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "", srv.URL+"/v1")
	recs, err := c.Advise(context.Background(), adviceRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"Oversample the minority group."}, recs)
	assert.Equal(t, defaultModel, gotModel)
}

func TestAdviseQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota", "type": "insufficient_quota", "code": "insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4o-mini", srv.URL+"/v1")
	_, err := c.Advise(context.Background(), adviceRequest())
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
}

func TestAdviseServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4o-mini", srv.URL+"/v1")
	_, err := c.Advise(context.Background(), adviceRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ai.ErrQuotaExceeded)
}
