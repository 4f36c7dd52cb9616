package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neuralflux/internal/app"
	"neuralflux/internal/transport/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("connected to MongoDB and Redis")

	router := rest.NewRouter(&rest.Container{
		Sessions:       a.Sessions,
		Stats:          a.Stats,
		WSHub:          a.WSHub,
		Metrics:        promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.Sessions.RunReaper(gctx, cfg.ReapInterval, cfg.SessionIdleTimeout)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, a.Close(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
