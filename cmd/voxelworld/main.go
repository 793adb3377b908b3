// Package main is the entry point for the headless voxelworld host.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/config"
	"github.com/kivi-man/voxelworld/internal/game"
	"github.com/kivi-man/voxelworld/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== VoxelWorld ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	g, err := game.New(cfg)
	if err != nil {
		logger.Error("failed to create game", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := g.Run(ctx, cfg.Game.MaxTicks)
	closeErr := g.Close()
	if runErr != nil {
		logger.Error("game error", zap.Error(runErr))
	}
	if closeErr != nil {
		logger.Error("shutdown save failed", zap.Error(closeErr))
	}
	if runErr != nil || closeErr != nil {
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("world saved, exiting")
}
