package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/biaslens/internal/middleware"
)

// Config holds all settings, loaded from config.yaml and the environment.
type Config struct {
	Server struct {
		Port           int               `yaml:"port"`
		AllowedOrigins []string          `yaml:"allowedOrigins"`
		SessionTTL     time.Duration     `yaml:"sessionTTL"`
		MaxUploadMB    int64             `yaml:"maxUploadMB"`
		APIKeys        map[string]string `yaml:"apiKeys"`
		RateLimit      struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Backend struct {
		AnalyzeURL string        `yaml:"analyzeURL"`
		ReportURL  string        `yaml:"reportURL"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	Minio struct {
		Endpoint      string        `yaml:"endpoint"`
		AccessKey     string        `yaml:"accessKey"`
		SecretKey     string        `yaml:"secretKey"`
		BucketName    string        `yaml:"bucketName"`
		Region        string        `yaml:"region"`
		UseSSL        bool          `yaml:"useSSL"`
		PresignExpiry time.Duration `yaml:"presignExpiry"`
	} `yaml:"minio"`

	Advisor struct {
		OpenAI struct {
			APIKey  string `yaml:"apiKey"`
			Model   string `yaml:"model"`
			BaseURL string `yaml:"baseURL"`
		} `yaml:"openai"`
		// batas waktu satu panggilan advisor, setelah itu pakai rules
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"advisor"`

	Report struct {
		OutputDir string `yaml:"outputDir"`
	} `yaml:"report"`
}

// Default config, dipakai kalau file config tidak ada.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.SessionTTL = 30 * time.Minute
	cfg.Server.MaxUploadMB = 32
	cfg.Server.RateLimit.Capacity = 30
	cfg.Server.RateLimit.RefillRate = 1
	cfg.Backend.AnalyzeURL = "http://127.0.0.1:5000/analyze"
	cfg.Backend.ReportURL = "http://127.0.0.1:5000/report"
	cfg.Backend.Timeout = 60 * time.Second
	cfg.Minio.BucketName = "biaslens-reports"
	cfg.Minio.Region = "us-east-1"
	cfg.Advisor.OpenAI.Model = "gpt-4o-mini"
	cfg.Advisor.Timeout = 20 * time.Second
	cfg.Report.OutputDir = "."
	return &cfg
}

// Load baca .env, file config.yaml (opsional), lalu override dari environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// jalan dengan default
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"BIASLENS_ANALYZE_URL":    &c.Backend.AnalyzeURL,
		"BIASLENS_REPORT_URL":     &c.Backend.ReportURL,
		"BIASLENS_REPORT_DIR":     &c.Report.OutputDir,
		"BIASLENS_MINIO_ENDPOINT": &c.Minio.Endpoint,
		"MINIO_ACCESS_KEY":        &c.Minio.AccessKey,
		"MINIO_SECRET_KEY":        &c.Minio.SecretKey,
		"OPENAI_API_KEY":          &c.Advisor.OpenAI.APIKey,
		"OPENAI_BASE_URL":         &c.Advisor.OpenAI.BaseURL,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("BIASLENS_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIASLENS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("BIASLENS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIASLENS_TIMEOUT: %w", err)
		}
		c.Backend.Timeout = d
	}
	if v, ok := os.LookupEnv("BIASLENS_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks the values the services cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if err := middleware.ValidateBackendURL(c.Backend.AnalyzeURL); err != nil {
		return fmt.Errorf("backend.analyzeURL: %w", err)
	}
	if err := middleware.ValidateBackendURL(c.Backend.ReportURL); err != nil {
		return fmt.Errorf("backend.reportURL: %w", err)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.maxUploadMB must be positive")
	}
	return nil
}

// MinioEnabled reports whether generated reports are archived.
func (c *Config) MinioEnabled() bool { return c.Minio.Endpoint != "" }

// AdvisorEnabled reports whether the OpenAI advisor is configured.
func (c *Config) AdvisorEnabled() bool { return c.Advisor.OpenAI.APIKey != "" }

// Path returns CONFIG_PATH or config.yaml.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
