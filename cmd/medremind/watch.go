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

	"github.com/sandeepkv93/medremind/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var metricsAddr string

func init() {
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus endpoint (default from config, \"off\" disables)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Deliver pending reminders without the terminal UI",
	Long: `Re-arm every pending reminder and keep running until interrupted,
delivering notifications as they come due. Do not run it alongside the
terminal UI against the same database.

Examples:
  medremind watch
  medremind watch --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := metrics.ObserveDropped(a.center.Dropped); err != nil {
		a.logger.Warn("register drop counter failed", zap.Error(err))
	}
	addr := metricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}
	if addr != "" && addr != "off" {
		srv := serveMetrics(addr, a.logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a.center.Start()
	if err := a.trackDeliveries(ctx); err != nil {
		return err
	}
	report, err := a.controller.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore reminders: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %d reminder(s), %d expired, %d failed\n",
		report.Restored, report.Expired, report.Failed)

	<-ctx.Done()
	a.logger.Info("watch stopped")
	return nil
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return srv
}
