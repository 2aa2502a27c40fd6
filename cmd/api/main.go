package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saulo-duarte/commitments-api/internal/config"
	"github.com/saulo-duarte/commitments-api/internal/container"
	"github.com/saulo-duarte/commitments-api/internal/reminder"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start")
	}
	defer c.Close()

	scheduler := reminder.NewScheduler(config.App.Location)
	if err := reminder.RegisterJobs(scheduler, c.ReminderContainer.Service); err != nil {
		logrus.WithError(err).Fatal("Failed to schedule background jobs")
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := serve(ctx, srv); err != nil {
		logrus.WithError(err).Error("HTTP server stopped")
	}
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts it
// down. Deferred cleanup in main runs either way.
func serve(ctx context.Context, srv *http.Server) error {
	serverErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logrus.Info("Shutting down")
	case runErr = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	return runErr
}
