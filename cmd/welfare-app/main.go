package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"welfare-app-go/internal/app"
	"welfare-app-go/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.NewFromEnv()

	if err := run(log); err != nil {
		log.Critical("app: exited with error", "err", err)
		os.Exit(1)
	}
	log.Info("app: stopped")
}

// run owns the process lifetime: it serves until a signal arrives or the
// listener fails, then drains HTTP before stopping the worker and stores.
func run(log logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("app: starting")
	application, err := app.New(ctx, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	application.Start(ctx)

	srv := application.HTTPServer()
	listenErr := make(chan error, 1)
	go func() {
		log.Info("http: listening", "addr", srv.Addr)
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("app: shutdown signal received")
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server on %s: %w", srv.Addr, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
