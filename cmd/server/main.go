package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rootify-backend/internal/config"
	"rootify-backend/internal/logging"
	"rootify-backend/internal/server"
)

func main() {
	log := logging.NewJSON()

	if err := run(log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		log.Warn(ctx, w)
	}

	deps, closeFn, err := server.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.Error(context.Background(), "failed to close backends", "error", err)
		}
	}()

	app := server.New(deps)
	go deps.Identity.SweepSessions(ctx, cfg.SessionSweepInterval, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "port", cfg.HTTPPort, "store", cfg.StoreDriver)
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
