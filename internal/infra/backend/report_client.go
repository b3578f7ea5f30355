package backend

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// ReportClient implements analysis.ReportBackend.
type ReportClient struct {
	endpoint string
	client   *http.Client
}

// NewReportClient falls back to DefaultReportURL and DefaultTimeout for zero values.
func NewReportClient(endpoint string, timeout time.Duration) *ReportClient {
	if endpoint == "" {
		endpoint = DefaultReportURL
	}
	return &ReportClient{endpoint: endpoint, client: newHTTPClient(timeout)}
}

// FetchReport posts the payload of r exactly as it was received and returns the PDF.
func (c *ReportClient) FetchReport(ctx context.Context, r *analysis.AnalysisResult) (*analysis.ReportArtifact, error) {
	if r == nil {
		return nil, analysis.ErrNoResultAvailable
	}
	payload, err := r.Payload()
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, unreachable("calling report service", err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp, maxResponseBytes)
	if err != nil {
		return nil, unreachable("reading report", err)
	}
	if !success(resp.StatusCode) {
		msg, _ := errorField(data)
		log.Printf("report rejected status=%d error=%q", resp.StatusCode, msg)
		return nil, &analysis.BackendError{Status: resp.StatusCode, Message: msg}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/pdf"
	}
	log.Printf("report fetched bytes=%d content_type=%s", len(data), ct)
	return &analysis.ReportArtifact{
		Filename:    analysis.ReportFilename,
		ContentType: ct,
		Data:        data,
	}, nil
}
