package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sbomdex/sbomdex/internal/config"
	dbRedis "github.com/sbomdex/sbomdex/internal/db/redis"
	logpkg "github.com/sbomdex/sbomdex/internal/logger"
	"github.com/sbomdex/sbomdex/internal/metrics"
	"github.com/sbomdex/sbomdex/internal/repository/analysiscache"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	"github.com/sbomdex/sbomdex/internal/repository/filestore"
	chiTransport "github.com/sbomdex/sbomdex/internal/transport/chi"
	analysisuc "github.com/sbomdex/sbomdex/internal/usecase/analysis"
	cataloguc "github.com/sbomdex/sbomdex/internal/usecase/catalog"
	generateuc "github.com/sbomdex/sbomdex/internal/usecase/generate"
	healthuc "github.com/sbomdex/sbomdex/internal/usecase/health"
	"github.com/sbomdex/sbomdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting sbomdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("sbom_dir", cfg.Storage.SBOMDir),
	)

	ctx := context.Background()

	// Catalog database
	repo, err := catalogrepo.Open(ctx, cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open catalog database", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	// SBOM file store
	files, err := filestore.New(cfg.Storage.SBOMDir)
	if err != nil {
		logger.Fatal("Failed to create sbom file store", zap.Error(err))
	}

	// Register analysis metrics explicitly (no init())
	metrics.RegisterAnalysisMetrics()

	// Optional comparison cache
	var (
		compCache   analysisuc.ComparisonCache
		cachePinger healthuc.CachePinger
	)
	if cfg.Cache.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeoutSec) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to comparison cache", zap.Strings("addrs", cfg.Cache.Addrs))

		ttl := time.Duration(cfg.Cache.TTLMin) * time.Minute
		compCache = analysiscache.New(store, ttl, metrics.ComparisonCacheTotal, logger)
		cachePinger = store
	}

	// Use case services
	catalogSvc := cataloguc.New(repo, files).
		WithPagination(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize)
	analysisSvc := analysisuc.New(files, repo, compCache)
	runner := generateuc.SyftRunner{
		Binary:  cfg.Generator.Binary,
		Timeout: time.Duration(cfg.Generator.TimeoutSec) * time.Second,
	}
	generateSvc, err := generateuc.New(catalogSvc, runner, cfg.Storage.UploadDir, logger)
	if err != nil {
		logger.Fatal("Failed to create generate service", zap.Error(err))
	}
	healthSvc := healthuc.New(repo, files, cachePinger)

	// Chi server
	server := chiTransport.NewServer(catalogSvc, analysisSvc, generateSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
