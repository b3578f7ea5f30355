package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/biaslens/internal/application/session"
	"github.com/bryanwahyu/biaslens/internal/bootstrap"
	"github.com/bryanwahyu/biaslens/internal/config"
	"github.com/bryanwahyu/biaslens/internal/infra/httpserver"
	"github.com/bryanwahyu/biaslens/internal/middleware"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Dependencies(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}

	registry := session.NewRegistry(func(id string) *session.Controller {
		return session.New(id, deps)
	}, cfg.Server.SessionTTL, deps.Clock)
	defer registry.Close()

	handler := httpserver.NewRouter(registry, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		APIKeys:        cfg.Server.APIKeys,
		RateCapacity:   cfg.Server.RateLimit.Capacity,
		RateRefill:     cfg.Server.RateLimit.RefillRate,
		Checkers: map[string]middleware.HealthChecker{
			"analysis_backend": &middleware.BackendHealthChecker{URL: cfg.Backend.AnalyzeURL},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// analysis and report calls may take up to the backend timeout
		WriteTimeout: cfg.Backend.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("server listening on %s analyze_url=%s", addr, cfg.Backend.AnalyzeURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return registry.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit: %v", err)
		os.Exit(1)
	}
}
