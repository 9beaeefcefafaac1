package main

import (
	"context"
	"strings"

	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/logging"
	"github.com/dshills/byteme/internal/render"
	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/score"
	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	description string
	format      string
	out         string
	failBelow   string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <video-url>",
		Short: "Analyze one video and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), a, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.description, "description", "d", "", "Optional video description")
	flags.StringVar(&f.format, "format", "text", "Output format: text, json, md or pretty")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.failBelow, "fail-below", "", "Exit 2 if the tier is below this one ("+tierNames()+")")

	return cmd
}

func runAnalyze(ctx context.Context, a *app, rawURL string, f *analyzeFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return exitError(3, "%v", err)
	}
	var threshold score.Tier
	if f.failBelow != "" {
		if threshold, err = score.ParseTier(f.failBelow); err != nil {
			return exitError(3, "invalid --fail-below: %v", err)
		}
	}

	cfg, prof, err := a.load()
	if err != nil {
		return err
	}
	log := logging.WithComponent("analyze")

	svc, err := a.service(cfg, prof)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(cfg, prof, svc, nil)
	if err != nil {
		return err
	}
	defer orch.Close()

	done := make(chan analysis.State, 1)
	unsubscribe := orch.Subscribe(func(st analysis.State) {
		if st.Phase.Terminal() {
			select {
			case done <- st:
			default:
			}
		}
	})
	defer unsubscribe()

	log.Debug().Str("service", svc.Name()).Str("profile", prof.Name).Dur("min_duration", cfg.MinDuration).Msg("submitting")
	if err := orch.Submit(request.New(rawURL, f.description)); err != nil {
		return exitError(3, "invalid input: %v", err)
	}

	var final analysis.State
	select {
	case final = <-done:
	case <-ctx.Done():
		orch.Reset()
		return exitError(4, "interrupted")
	}

	output, err := render.Render(final, format, 80)
	if err != nil {
		return exitError(3, "%v", err)
	}
	if err := a.write(f.out, output); err != nil {
		return err
	}

	if final.Phase == analysis.PhaseFailed {
		return exitError(failureExitCode(final.Failure.Kind), "analysis failed: %s", final.Failure.Reason)
	}
	if threshold != "" && !final.Result.Tier.AtLeast(threshold) {
		return exitError(2, "tier %s is below %s", final.Result.Tier, threshold)
	}
	return nil
}

func failureExitCode(kind analysis.FailureKind) int {
	if kind == analysis.KindMalformedResponse {
		return 5
	}
	return 4
}

func tierNames() string {
	names := make([]string, len(score.Tiers))
	for i, t := range score.Tiers {
		names[i] = strings.ToLower(string(t))
	}
	return strings.Join(names, ", ")
}
