package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/config"
	"github.com/dshills/byteme/internal/logging"
	"github.com/dshills/byteme/internal/profile"
	"github.com/dshills/byteme/internal/service"
	"github.com/dshills/byteme/internal/stub"
	"github.com/spf13/viper"
)

// app carries state shared by every command.
type app struct {
	v          *viper.Viper
	configPath string
	stdout     io.Writer

	// newService replaces service construction in tests.
	newService func(*config.Config, *profile.Profile) (service.Service, error)
}

func newApp() *app {
	return &app{v: config.New(), stdout: os.Stdout}
}

func (a *app) load() (*config.Config, *profile.Profile, error) {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return nil, nil, exitError(3, "%v", err)
	}
	logging.Init(cfg.Verbose)

	prof, err := profile.Load(cfg.Profile)
	if err != nil {
		return nil, nil, exitError(3, "failed to load profile: %v", err)
	}
	return cfg, prof, nil
}

func (a *app) service(cfg *config.Config, prof *profile.Profile) (service.Service, error) {
	var (
		svc service.Service
		err error
	)
	switch {
	case a.newService != nil:
		svc, err = a.newService(cfg, prof)
	case cfg.Stub():
		svc = stub.New(prof, stub.Options{Rules: cfg.Rules(), Logger: logging.WithComponent("stub")})
	default:
		svc, err = service.NewHTTP(service.Options{
			Endpoint:         cfg.Endpoint,
			RateLimit:        cfg.RateLimit,
			MaxResponseBytes: cfg.MaxResponseBytes,
			Redact:           cfg.Redact,
			Logger:           logging.WithComponent("service"),
		})
	}
	if err != nil {
		return nil, exitError(3, "failed to create analysis service: %v", err)
	}
	svc, err = service.WithCache(svc, cfg.CacheSize)
	if err != nil {
		return nil, exitError(3, "%v", err)
	}
	return svc, nil
}

func (a *app) orchestrator(cfg *config.Config, prof *profile.Profile, svc service.Service, m *analysis.Metrics) (*analysis.Orchestrator, error) {
	orch, err := analysis.New(svc, analysis.Options{
		MinDuration: cfg.MinDuration,
		Timeout:     cfg.Timeout,
		RetryMode:   cfg.Mode(),
		Rules:       cfg.Rules(),
		Profile:     prof,
		Logger:      logging.WithComponent("analysis"),
		Metrics:     m,
	})
	if err != nil {
		return nil, exitError(3, "%v", err)
	}
	return orch, nil
}

func (a *app) write(path, output string) error {
	if path == "" {
		_, err := io.WriteString(a.stdout, output)
		return err
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
