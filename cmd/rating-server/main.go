// cmd/rating-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rating-engine/internal/api"
	"rating-engine/internal/cache"
	"rating-engine/internal/common/config"
	"rating-engine/internal/common/logger"
	"rating-engine/internal/common/observability"
	"rating-engine/internal/heuristic"
	"rating-engine/internal/mistral"
	"rating-engine/internal/rating"
	"rating-engine/internal/sentiment"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting rating server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init response cache ---
	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		var rs *cache.RedisStore
		err = retryWithBackoff(func() error {
			var err error
			rs, err = cache.NewRedisStore(cfg.Cache.Redis, cfg.Cache.GetTTL(), cfg.Cache.MaxEntries)
			if err != nil {
				return err
			}
			// Test the connection with context
			return rs.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		store = rs
		zapLog.Info("Redis response cache connected successfully")
	default:
		store = cache.NewMemoryStore(cfg.Cache.GetTTL(), cfg.Cache.MaxEntries)
		zapLog.Info("In-memory response cache initialized",
			zap.Int("maxEntries", cfg.Cache.MaxEntries),
			zap.Duration("ttl", cfg.Cache.GetTTL()),
		)
	}
	defer store.Close()

	// --- Init Mistral client and evaluation pipeline ---
	client := mistral.NewClient(cfg.Mistral, store, log)
	estimator := heuristic.NewEstimator()
	evaluator := rating.NewService(client, estimator, obs, log)
	analyzer := sentiment.NewAnalyzer(client, estimator, log)

	zapLog.Info("Evaluation pipeline initialized", zap.String("model", cfg.Mistral.Model))

	srv := api.NewServer(cfg, evaluator, analyzer, client, store, log)

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Rating server stopped gracefully")
}
