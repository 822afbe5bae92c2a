package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireloop/hireloop/api"
	"github.com/hireloop/hireloop/internal/config"
	"github.com/hireloop/hireloop/internal/db"
	"github.com/hireloop/hireloop/internal/extract"
	"github.com/hireloop/hireloop/internal/logger"
	"github.com/hireloop/hireloop/internal/pipeline"
	"github.com/hireloop/hireloop/internal/repository/sqlite"
	"github.com/hireloop/hireloop/internal/sourcing"
	"github.com/hireloop/hireloop/internal/store"
	"github.com/hireloop/hireloop/internal/store/elastic"
	"github.com/hireloop/hireloop/internal/store/filestore"
	"github.com/hireloop/hireloop/pkg/gemini"
	"github.com/hireloop/hireloop/pkg/ollama"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	api.SetLogger(zl)

	zl.Info("starting hireloop server",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("storage", cfg.Storage),
	)

	ctx := context.Background()

	// Jobs always live on the flat-file store; candidates follow the
	// configured backend.
	files, err := filestore.New(cfg.DataDir, zl.Named("filestore"))
	if err != nil {
		zl.Fatal("failed to open file store", zap.Error(err))
	}

	var candidates store.CandidateStore = files
	if cfg.Storage == config.StorageElastic {
		es, err := elastic.New(cfg.Elastic, zl.Named("elastic"))
		if err != nil {
			zl.Fatal("failed to build elasticsearch client", zap.Error(err))
		}
		if err := es.EnsureIndex(ctx); err != nil {
			zl.Fatal("failed to ensure candidates index", zap.Error(err))
		}
		candidates = es
	}

	// Workflow bookkeeping database.
	conn, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		zl.Fatal("failed to open workflow db", zap.Error(err))
	}
	workflows := sqlite.New(conn, zl.Named("workflows"))
	if err := workflows.EnsureSchema(ctx); err != nil {
		zl.Fatal("failed to ensure workflow schema", zap.Error(err))
	}

	// Extraction chain: ollama, then gemini, then heuristics.
	ollamaClient, err := ollama.NewClient(cfg.Ollama, nil, zl.Named("ollama"))
	if err != nil {
		zl.Fatal("failed to build ollama client", zap.Error(err))
	}
	defer ollamaClient.Close()

	var secondary extract.Generator
	if cfg.Gemini.APIKey != "" {
		g, err := gemini.NewGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			zl.Warn("gemini unavailable, extraction falls back to heuristics sooner", zap.Error(err))
		} else {
			secondary = g
		}
	}

	chain, err := extract.NewChain(ollamaClient, secondary, cfg.Extraction.Timeout, zl.Named("extract"))
	if err != nil {
		zl.Fatal("failed to build extraction chain", zap.Error(err))
	}

	pipelineSvc, err := pipeline.NewService(candidates, workflows, zl.Named("pipeline"))
	if err != nil {
		zl.Fatal("failed to build pipeline service", zap.Error(err))
	}

	sourcer, err := sourcing.NewOrchestrator(nil, candidates, zl.Named("sourcing"))
	if err != nil {
		zl.Fatal("failed to build sourcing orchestrator", zap.Error(err))
	}

	handler := api.SetupRoutes(api.Deps{
		Jobs:       files,
		Candidates: candidates,
		Pipeline:   pipelineSvc,
		Extractor:  chain,
		Sourcer:    sourcer,
		JWTSecret:  cfg.JWTSecret,
	}, version, buildTime)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	if err := conn.Close(); err != nil {
		zl.Error("failed to close workflow db", zap.Error(err))
	}
	zl.Info("server exited")
}
