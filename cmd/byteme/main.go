package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(newApp())
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			stop()
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "byteme",
		Short:         "Score short-form videos and turn the scores into a tier and advice",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (YAML)")
	pf.String("endpoint", "http://localhost:8080", `Analysis service base URL, or "stub" for the built-in stub`)
	pf.String("profile", "creator", "Metric profile name or path to a profile YAML file")
	pf.Duration("min-duration", analysis.DefaultMinDuration, "Minimum time an analysis stays in the loading state")
	pf.Duration("timeout", 0, "Upper bound on the remote call (0 = none)")
	pf.String("retry-mode", "rearm", "What retry does after a failure: rearm or resubmit")
	pf.Bool("verbose", false, "Debug logging to stderr")
	cobra.CheckErr(config.BindFlags(a.v, pf))

	root.AddCommand(
		newAnalyzeCmd(a),
		newHealthCmd(a),
		newProfilesCmd(a),
		newTUICmd(a),
		newStubServerCmd(a),
	)
	return root
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
