package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quiz-solver/internal/chain"
	"quiz-solver/internal/config"
	"quiz-solver/internal/llm"
	"quiz-solver/internal/logging"
	"quiz-solver/internal/metrics"
	"quiz-solver/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewWithFallback(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		logger.Warn("invalid logging config, using defaults", zap.String("log_level", cfg.LogLevel), zap.Error(err))
	}
	defer logger.Sync()

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := llm.FromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create llm client", zap.Error(err))
	}
	defer provider.Close()

	m := metrics.New()

	// Chains run on their own context so an in-flight chain is not torn down
	// the moment the listener stops; it is cancelled after the drain window.
	chainCtx, cancelChains := context.WithCancel(context.Background())
	defer cancelChains()
	launcher := chain.NewLauncher(chainCtx, cfg, provider, m, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(cfg.Identity(), launcher, m, logger.Logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("quiz solver listening",
			zap.String("addr", srv.Addr),
			zap.String("llm", provider.Name()),
			zap.String("fetch_mode", cfg.FetchMode),
			zap.Duration("time_budget", cfg.TimeBudget),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Block here until a signal is received
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	if n := launcher.Active(); n > 0 {
		logger.Info("cancelling in-flight chains",
			zap.Int("active", n),
			zap.Strings("start_urls", launcher.ActiveURLs()),
		)
	}
	cancelChains()
	launcher.Wait()
	logger.Info("all chains stopped")
}
