// Package bootstrap builds the session dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/bryanwahyu/biaslens/internal/application"
	"github.com/bryanwahyu/biaslens/internal/application/advice"
	"github.com/bryanwahyu/biaslens/internal/application/session"
	"github.com/bryanwahyu/biaslens/internal/config"
	"github.com/bryanwahyu/biaslens/internal/domain/ai"
	"github.com/bryanwahyu/biaslens/internal/infra/ai/openai"
	"github.com/bryanwahyu/biaslens/internal/infra/backend"
	"github.com/bryanwahyu/biaslens/internal/infra/chart"
	"github.com/bryanwahyu/biaslens/internal/infra/dataset"
	"github.com/bryanwahyu/biaslens/internal/infra/storage"
)

// Dependencies wires clients from cfg. MinIO is connected only when configured.
func Dependencies(ctx context.Context, cfg *config.Config) (session.Dependencies, error) {
	deps := session.Dependencies{
		Analyzer: dataset.NewConverting(backend.NewAnalysisClient(cfg.Backend.AnalyzeURL, cfg.Backend.Timeout)),
		Reports:  backend.NewReportClient(cfg.Backend.ReportURL, cfg.Backend.Timeout),
		Advisor:  advisorService(cfg),
		Charts:   chart.NewRenderer(),
		Clock:    application.SystemClock{},
	}

	if cfg.MinioEnabled() {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return deps, fmt.Errorf("minio init: %w", err)
		}
		store.PresignExpiry = cfg.Minio.PresignExpiry
		deps.Saver = store
		log.Printf("report archive enabled endpoint=%s bucket=%s", cfg.Minio.Endpoint, cfg.Minio.BucketName)
	}
	return deps, nil
}

func advisorService(cfg *config.Config) *advice.Service {
	svc := advice.NewService(advisorClient(cfg))
	if cfg.Advisor.Timeout > 0 {
		svc.Timeout = cfg.Advisor.Timeout
	}
	return svc
}

func advisorClient(cfg *config.Config) ai.Client {
	if !cfg.AdvisorEnabled() {
		return nil
	}
	log.Printf("openai advisor enabled model=%s", cfg.Advisor.OpenAI.Model)
	return openai.NewClient(cfg.Advisor.OpenAI.APIKey, cfg.Advisor.OpenAI.Model, cfg.Advisor.OpenAI.BaseURL)
}
