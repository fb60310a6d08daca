package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"migration-portal-service/internal/adapters/primary/http/handlers"
	"migration-portal-service/internal/adapters/primary/http/middleware"
	"migration-portal-service/internal/adapters/secondary/hfinference"
	"migration-portal-service/internal/adapters/secondary/lakebridge"
	"migration-portal-service/internal/adapters/secondary/memory"
	"migration-portal-service/internal/adapters/secondary/objectstore"
	"migration-portal-service/internal/adapters/secondary/postgres"
	"migration-portal-service/internal/config"
	ports "migration-portal-service/internal/core/ports/output"
	"migration-portal-service/internal/core/services"
	"migration-portal-service/web"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Run store (Optional Postgres - based on config)
	var runRepo ports.RunRepository
	if cfg.Database.Enabled {
		pool, err := newPool(cfg)
		if err != nil {
			log.Warnf("database init failed (continuing with in-memory run store): %v", err)
			runRepo = memory.NewRunRepository()
		} else {
			defer pool.Close()
			runRepo = postgres.NewRunRepository(pool)
			log.Info("database connection established")
		}
	} else {
		runRepo = memory.NewRunRepository()
		log.Info("database disabled, using in-memory run store")
	}

	// Artifact archive (Optional - based on config)
	var archive ports.ArtifactArchive
	if cfg.Archive.Enabled {
		store, err := objectstore.NewArchive(&cfg.Archive)
		if err != nil {
			log.Warnf("artifact archive init failed (continuing without archival): %v", err)
		} else if err := store.EnsureBucket(context.Background()); err != nil {
			log.Warnf("artifact archive bucket check failed (continuing without archival): %v", err)
		} else {
			archive = store
			log.Infof("artifact archive initialized (bucket %s)", cfg.Archive.Bucket)
		}
	} else {
		log.Info("artifact archival disabled")
	}

	// External migration tooling. A missing binary fails individual runs,
	// not the server.
	analyzer := lakebridge.NewAnalyzer(&cfg.Analyzer)
	if !analyzer.IsAvailable() {
		log.Warnf("analyzer binary %q not found on PATH, analyze requests will fail", cfg.Analyzer.Bin)
	}
	transpiler := lakebridge.NewTranspiler(&cfg.Transpiler)
	if !transpiler.IsAvailable() {
		log.Warnf("transpiler binary %q not found on PATH, transpile requests will fail", cfg.Transpiler.Bin)
	}

	// Validator (mock mode without an API token)
	var validator ports.Validator
	if cfg.Validator.APIKey != "" {
		validator = hfinference.NewClient(&cfg.Validator)
		log.Infof("validator initialized (model %s)", cfg.Validator.Model)
	} else {
		validator = hfinference.NewMock()
		log.Info("no validator API key configured, using mock validation")
	}

	if err := os.MkdirAll(cfg.Pipeline.WorkDir, 0o755); err != nil {
		log.Fatalf("create work dir: %v", err)
	}

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	runSvc := services.NewRunService(runRepo, archive, cfg.Pipeline.WorkDir, cfg.Pipeline.MaxUploadBytes)
	pipelineSvc := services.NewPipelineService(runRepo, analyzer, transpiler, validator, archive)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(runSvc, pipelineSvc)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group(handlers.BasePath)
	h.RegisterRoutes(api)

	// Single-page UI
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})

	// Health check with store ping
	router.GET("/healthz", func(c *gin.Context) {
		if err := runRepo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func newPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
