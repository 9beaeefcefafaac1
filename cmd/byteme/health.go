package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/byteme/internal/service"
	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), a, timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "probe-timeout", 5*time.Second, "Health probe timeout")
	return cmd
}

func runHealth(ctx context.Context, a *app, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, prof, err := a.load()
	if err != nil {
		return err
	}
	svc, err := a.service(cfg, prof)
	if err != nil {
		return err
	}
	hc, ok := svc.(service.HealthChecker)
	if !ok {
		return exitError(3, "service %s has no health endpoint", svc.Name())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	h, err := hc.Health(ctx)
	if err != nil {
		return exitError(4, "unhealthy: %v", err)
	}
	return a.write("", fmt.Sprintf("%s: %s\n", h.Status, h.Message))
}
