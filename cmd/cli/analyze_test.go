package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/biaslens/internal/config"
	"github.com/bryanwahyu/biaslens/internal/domain/analysis"
)

func fakeService(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"rows": 2, "sensitive_attribute": "gender", "attribute_type": "categorical",
			"group_distribution": {"male": 0.5, "female": 0.5}, "disparate_impact": 1.0,
			"statistical_parity_difference": 0.0, "explanation": "Balanced."}`)
	})
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *config.Config {
	cfg := config.Default()
	cfg.Backend.AnalyzeURL = srv.URL + "/analyze"
	cfg.Backend.ReportURL = srv.URL + "/report"
	return cfg
}

func TestRunAnalyze(t *testing.T) {
	srv := fakeService(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(data, []byte("gender\nmale\nfemale\n"), 0o644))

	var stdout, stderr bytes.Buffer
	opts := &analyzeOptions{
		file:      data,
		sensitive: "gender",
		report:    true,
		chartPath: filepath.Join(dir, "chart.png"),
		outDir:    dir,
	}
	require.NoError(t, runAnalyze(context.Background(), testConfig(srv), opts, &stdout, &stderr))

	assert.Contains(t, stdout.String(), "**Risk:** Fair")
	assert.Contains(t, stdout.String(), "No major bias detected.")
	assert.Contains(t, stderr.String(), "[success]")

	report, err := os.ReadFile(filepath.Join(dir, analysis.ReportFilename))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(report))

	png, err := os.ReadFile(opts.chartPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRunAnalyzeMissingInput(t *testing.T) {
	srv := fakeService(t)
	var stdout, stderr bytes.Buffer

	err := runAnalyze(context.Background(), testConfig(srv), &analyzeOptions{sensitive: "gender"}, &stdout, &stderr)
	assert.ErrorIs(t, err, analysis.ErrMissingFile)
	assert.Contains(t, stderr.String(), "Please upload a dataset file.")
	assert.Empty(t, stdout.String())
}

func TestAnalyzeCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"analyze", "--help"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "--sensitive")
	assert.Contains(t, out.String(), "--report")
}
