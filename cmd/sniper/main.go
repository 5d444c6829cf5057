// ====================================
// File: cmd/sniper/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-sniper/internal/config"
	"github.com/rovshanmuradov/raydium-sniper/internal/logger"
	"github.com/rovshanmuradov/raydium-sniper/internal/sniper"
)

func main() {
	// A missing .env is fine; real deployments export the variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Every log line of a run carries the same correlation id, so
	// overlapping runs writing to one rotated file stay separable.
	session := log.WithOperation("trading_session")
	session.Info("starting raydium sniper")

	runner := sniper.NewRunner(cfg, session)
	if err := runner.Run(context.Background()); err != nil {
		log.Error("sniper exited with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
