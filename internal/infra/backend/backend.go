// Package backend talks to the remote fairness-analysis service.
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

const (
	DefaultAnalyzeURL = "http://127.0.0.1:5000/analyze"
	DefaultReportURL  = "http://127.0.0.1:5000/report"
	DefaultTimeout    = 60 * time.Second

	// maxResponseBytes bounds what we buffer from the service (reports included).
	maxResponseBytes = 64 << 20
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// unreachable wraps transport and decoding failures.
func unreachable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", analysis.ErrBackendUnreachable, op, err)
}

var errBodyTooLarge = errors.New("response body too large")

// readBody reads at most limit bytes and fails rather than truncate a larger body.
func readBody(resp *http.Response, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", errBodyTooLarge, limit)
	}
	return data, nil
}

// errorField returns the service's "error" string when the body is a JSON object carrying one.
func errorField(body []byte) (string, bool) {
	var envelope struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return "", false
	}
	return *envelope.Error, true
}

func success(status int) bool { return status >= 200 && status < 300 }
