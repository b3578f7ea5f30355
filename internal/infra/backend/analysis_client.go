package backend

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

// AnalysisClient implements analysis.AnalysisBackend over the multipart /analyze contract.
type AnalysisClient struct {
	endpoint string
	client   *http.Client
}

// NewAnalysisClient creates a client; empty endpoint and non-positive timeout use the defaults.
func NewAnalysisClient(endpoint string, timeout time.Duration) *AnalysisClient {
	if endpoint == "" {
		endpoint = DefaultAnalyzeURL
	}
	return &AnalysisClient{endpoint: endpoint, client: newHTTPClient(timeout)}
}

// Submit sends one request. There are no retries.
func (c *AnalysisClient) Submit(ctx context.Context, in analysis.ValidatedInput) (*analysis.AnalysisResult, error) {
	body, contentType, err := encodeForm(in)
	if err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log.Printf("analysis submit endpoint=%s file=%s attribute=%s bytes=%d", c.endpoint, in.File.Name, in.Attribute, len(in.File.Data))
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, unreachable("calling analysis service", err)
	}
	defer resp.Body.Close()

	raw, err := readBody(resp, maxResponseBytes)
	if err != nil {
		return nil, unreachable("reading response", err)
	}

	msg, hasError := errorField(raw)
	if !success(resp.StatusCode) || hasError {
		log.Printf("analysis rejected status=%d error=%q", resp.StatusCode, msg)
		return nil, &analysis.BackendError{Status: resp.StatusCode, Message: msg}
	}

	result, err := analysis.ParseResult(raw)
	if err != nil {
		return nil, unreachable("decoding response", err)
	}
	return result, nil
}

func encodeForm(in analysis.ValidatedInput) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	name := in.File.Name
	if name == "" {
		name = "dataset.csv"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	ct := in.File.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(in.File.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("sensitive", in.Attribute); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
