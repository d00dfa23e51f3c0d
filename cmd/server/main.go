package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/app"
	"github.com/neshyamekala/Medicall/internal/config"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}

	logger.Infof("medicall starting: env=%s storage=%s notify=%s tz=%s", cfg.Env, cfg.DBType, cfg.NotifyBackend, cfg.Timezone)
	if err := a.Run(ctx); err != nil {
		logger.Errorf("server exited with error: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("medicall stopped")
}
