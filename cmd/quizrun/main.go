// Command quizrun runs a single chain in the foreground:
//
//	quizrun -url="https://quiz.example.com/demo" -budget=5m
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quiz-solver/internal/chain"
	"quiz-solver/internal/config"
	"quiz-solver/internal/llm"
	"quiz-solver/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	startURL := flag.String("url", "", "The quiz URL to start from")
	budget := flag.Duration("budget", 0, "Time budget for the chain (defaults to TIME_BUDGET)")
	flag.Parse()

	if *startURL == "" {
		fmt.Fprintln(os.Stderr, "usage: quizrun -url=<quiz url> [-budget=3m]")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *budget > 0 {
		cfg.TimeBudget = *budget
	}

	logger, err := logging.NewWithFallback(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		logger.Warn("invalid logging config, using defaults", zap.String("log_level", cfg.LogLevel), zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := llm.FromConfig(ctx, cfg)
	if err != nil {
		log.Printf("llm: %v", err)
		return 1
	}
	defer provider.Close()

	res := chain.NewLauncher(ctx, cfg, provider, nil, logger).Run(ctx, *startURL)

	fmt.Printf("state=%s iterations=%d last_url=%s\n", res.State, res.Iterations, res.LastURL)
	if res.Err != nil {
		fmt.Printf("error: %v\n", res.Err)
	}
	if res.State != chain.Completed {
		return 1
	}
	return 0
}
