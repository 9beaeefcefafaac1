package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dshills/byteme/internal/logging"
	"github.com/dshills/byteme/internal/stub"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type stubServerFlags struct {
	addr  string
	delay time.Duration
}

func newStubServerCmd(a *app) *cobra.Command {
	f := &stubServerFlags{}
	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Serve the deterministic stub analysis API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStubServer(cmd.Context(), a, f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "Artificial latency per analysis")
	return cmd
}

func runStubServer(ctx context.Context, a *app, f *stubServerFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, prof, err := a.load()
	if err != nil {
		return err
	}
	log := logging.WithComponent("stub-server")

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	svc := stub.New(prof, stub.Options{Rules: cfg.Rules(), Delay: f.delay, Logger: log})
	srv := &http.Server{
		Addr:              f.addr,
		Handler:           stub.Router(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", f.addr).Str("profile", prof.Name).Msg("stub server listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return exitError(1, "stub server: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return exitError(1, "stub server shutdown: %v", err)
	}
	log.Info().Msg("stub server stopped")
	return nil
}
