package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:5000/analyze", cfg.Backend.AnalyzeURL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.False(t, cfg.MinioEnabled())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  sessionTTL: 5m
  allowedOrigins: ["http://localhost:3000"]
backend:
  analyzeURL: http://fairness:5000/analyze
  timeout: 15s
minio:
  endpoint: minio:9000
advisor:
  openai:
    apiKey: sk-test
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://fairness:5000/analyze", cfg.Backend.AnalyzeURL)
	assert.Equal(t, "http://127.0.0.1:5000/report", cfg.Backend.ReportURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.MinioEnabled())
	assert.True(t, cfg.AdvisorEnabled())
	assert.Equal(t, "gpt-4o-mini", cfg.Advisor.OpenAI.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BIASLENS_ANALYZE_URL", "http://override:5000/analyze")
	t.Setenv("BIASLENS_PORT", "7070")
	t.Setenv("BIASLENS_TIMEOUT", "3s")
	t.Setenv("BIASLENS_ALLOWED_ORIGINS", "http://a, http://b")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "http://override:5000/analyze", cfg.Backend.AnalyzeURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "backend:\n  analyzeURL: ftp://nope\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]\n"))
	assert.Error(t, err)

	t.Setenv("BIASLENS_PORT", "eighty")
	_, err = Load(writeConfig(t, ""))
	assert.Error(t, err)
}
