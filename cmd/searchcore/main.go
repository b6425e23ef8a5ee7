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

	"github.com/shopsense/searchcore/internal/config"
	dbRedis "github.com/shopsense/searchcore/internal/db/redis"
	logpkg "github.com/shopsense/searchcore/internal/logger"
	"github.com/shopsense/searchcore/internal/metrics"
	"github.com/shopsense/searchcore/internal/repository/embcache"
	engagementrepo "github.com/shopsense/searchcore/internal/repository/engagement"
	productrepo "github.com/shopsense/searchcore/internal/repository/product"
	retrievalrepo "github.com/shopsense/searchcore/internal/repository/retrieval"
	chiTransport "github.com/shopsense/searchcore/internal/transport/chi"
	openaiEmb "github.com/shopsense/searchcore/internal/transport/openai"
	cataloguc "github.com/shopsense/searchcore/internal/usecase/catalog"
	eventuc "github.com/shopsense/searchcore/internal/usecase/event"
	healthuc "github.com/shopsense/searchcore/internal/usecase/health"
	rankinguc "github.com/shopsense/searchcore/internal/usecase/ranking"
	searchuc "github.com/shopsense/searchcore/internal/usecase/search"
	"github.com/shopsense/searchcore/internal/version"
)

const productIndexName = "idx:products"

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

	logger.Info("Starting searchcore API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Embedder chain: OpenAI -> read-through cache
	baseEmbedder := openaiEmb.New(openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	embedder := embcache.New(
		baseEmbedder, store, cfg.Storage.KeyPrefix, cfg.Embedding.Model,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
	)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	productKeyPrefix := cfg.Storage.KeyPrefix + "product:"
	retrievalRepo := retrievalrepo.New(store, productIndexName, productKeyPrefix, cfg.Embedding.Dimensions)
	productRepo := productrepo.New(store, productKeyPrefix, productIndexName)
	engagementRepo := engagementrepo.New(
		store, cfg.Storage.KeyPrefix,
		time.Duration(cfg.Events.RetentionDays)*24*time.Hour,
	)

	if err := retrievalRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure product index", zap.Error(err))
	}

	// Use case services
	rankingSvc := rankinguc.New(rankinguc.Config{
		Weights: rankinguc.Weights{
			Search:   cfg.Ranking.Weights.Search,
			Click:    cfg.Ranking.Weights.Click,
			Cart:     cfg.Ranking.Weights.Cart,
			Purchase: cfg.Ranking.Weights.Purchase,
		},
		BoostFactor:         cfg.Ranking.BoostFactor,
		MaxEngagement:       cfg.Ranking.MaxEngagement,
		DecayBase:           cfg.Ranking.DecayBase,
		DecayPeriodDays:     cfg.Ranking.DecayPeriodDays,
		ColdStartConfidence: cfg.Ranking.ColdStartConfidence,
		ExplorationRate:     cfg.Ranking.ExplorationRate,
		ExplorationBoost:    cfg.Ranking.ExplorationBoost,
	}, engagementRepo)
	searchSvc := searchuc.New(searchuc.Config{
		DefaultLimit:               cfg.Search.DefaultLimit,
		MaxLimit:                   cfg.Search.MaxLimit,
		CandidateMultiplier:        cfg.Search.CandidateMultiplier,
		FallbackScanCap:            cfg.Search.FallbackScanCap,
		EngagementExplainThreshold: cfg.Ranking.EngagementExplainThreshold,
	}, embedder, retrievalRepo, productRepo, rankingSvc)
	eventSvc := eventuc.New(engagementRepo, productRepo, cfg.Events.QueueSize, logger)
	catalogSvc := cataloguc.New(productRepo, embedder)
	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(searchSvc, eventSvc, catalogSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware)
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

	// Drain buffered events before closing the store.
	eventSvc.Close()

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer catches panics and returns a JSON 500 instead of chi's
// default plain-text response.
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
