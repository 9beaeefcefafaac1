package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/logging"
	"github.com/dshills/byteme/internal/tui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type tuiFlags struct {
	metricsAddr string
	logFile     string
}

func newTUICmd(a *app) *cobra.Command {
	f := &tuiFlags{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal analyzer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), a, f)
		},
	}
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Write logs to this file instead of discarding them")
	return cmd
}

func runTUI(ctx context.Context, a *app, f *tuiFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, prof, err := a.load()
	if err != nil {
		return err
	}

	// Log lines would corrupt the screen.
	if f.logFile != "" {
		lf, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return exitError(3, "failed to open log file: %v", err)
		}
		defer lf.Close()
		logging.ToFile(lf)
	} else {
		logging.Quiet()
	}
	log := logging.WithComponent("tui")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := analysis.MustNewMetrics(reg)

	if f.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: f.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", f.metricsAddr).Msg("serving metrics")
	}

	svc, err := a.service(cfg, prof)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(cfg, prof, svc, metrics)
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := tui.Run(ctx, orch); err != nil {
		return exitError(1, "%v", err)
	}
	return nil
}
