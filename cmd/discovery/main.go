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

	"github.com/armorymarket/discovery/internal/canonical"
	"github.com/armorymarket/discovery/internal/catalog"
	"github.com/armorymarket/discovery/internal/config"
	engineRedis "github.com/armorymarket/discovery/internal/engine/redis"
	"github.com/armorymarket/discovery/internal/gazetteer"
	"github.com/armorymarket/discovery/internal/index"
	logpkg "github.com/armorymarket/discovery/internal/logger"
	"github.com/armorymarket/discovery/internal/metrics"
	"github.com/armorymarket/discovery/internal/planner"
	chiTransport "github.com/armorymarket/discovery/internal/transport/chi"
	searchuc "github.com/armorymarket/discovery/internal/usecase/search"
	syncuc "github.com/armorymarket/discovery/internal/usecase/sync"
	"github.com/armorymarket/discovery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting discovery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("engine_addrs", cfg.Engine.Addrs),
		zap.String("index", cfg.Index.Name),
	)

	// Search engine store
	store, err := engineRedis.NewStore(engineRedis.Config{
		Addrs:    cfg.Engine.Addrs,
		Username: cfg.Engine.Username,
		Password: cfg.Engine.Password,
		DB:       cfg.Engine.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create engine store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Engine not ready", zap.Error(err))
	}
	logger.Info("Connected to search engine")

	// Canonical listings database
	db, err := canonical.Open(ctx, cfg.Canonical.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to canonical store", zap.Error(err))
	}
	defer db.Close()
	canonicalRepo := canonical.New(db)
	logger.Info("Connected to canonical store")

	// Static data: postal geography and category vocabulary
	gaz, err := gazetteer.LoadFile(cfg.Gazetteer.Path)
	if err != nil {
		logger.Fatal("Failed to load gazetteer", zap.Error(err))
	}
	logger.Info("Gazetteer loaded", zap.Int("entries", gaz.Len()))

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load category catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded",
		zap.String("catalog_version", cat.Version()),
		zap.Int("categories", len(cat.All())),
	)

	// Register sync metrics explicitly (no init())
	metrics.RegisterSyncMetrics()

	// Index repository over the engine store
	indexRepo := index.New(store, cfg.Index.Name, cfg.Index.KeyPrefix)
	if err := indexRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure search index", zap.Error(err))
	}
	logger.Info("Search index ready", zap.String("index", cfg.Index.Name))

	// Use case services
	syncSvc := syncuc.New(canonicalRepo, indexRepo, gaz).
		WithLease(time.Duration(cfg.Sync.LeaseSec) * time.Second)
	searchPlanner := planner.New(cfg.Index.Name, cfg.Index.PageSize, gaz)
	searchSvc := searchuc.New(searchPlanner, store, indexRepo, cat)

	// HTTP server
	server := chiTransport.NewServer(searchSvc, syncSvc, cat, store, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	// Periodic reconciliation
	schedCtx, stopScheduler := context.WithCancel(logpkg.ContextWithLogger(ctx, logger))
	scheduler := syncuc.NewScheduler(syncSvc, time.Duration(cfg.Sync.IntervalSec)*time.Second, logger)
	go scheduler.Run(schedCtx)

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
	stopScheduler()

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
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
