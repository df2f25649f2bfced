package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/erp"
)

// runtime is everything a command needs to answer questions.
type runtime struct {
	settings  *config.Settings
	registry  *ai.Registry
	executor  *erp.Executor
	assistant *assistant.Assistant

	closeBackend func()
}

// loadSettings reads .env and the settings file.
func loadSettings() (*config.Settings, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.LoadSettings(settingsPath)
}

// bootstrap initializes logging, loads settings and opens the backend.
// console mirrors the application log to stderr.
func bootstrap(ctx context.Context, console bool) (*runtime, error) {
	if err := applog.Init(applog.Options{Level: logLevel, Console: console}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	settings, err := loadSettings()
	if err != nil {
		applog.Close()
		return nil, err
	}
	rt, err := newRuntime(ctx, settings)
	if err != nil {
		applog.Close()
		return nil, err
	}
	return rt, nil
}

func newRuntime(ctx context.Context, settings *config.Settings) (*runtime, error) {
	src, closeBackend, err := erp.Open(ctx, settings)
	if err != nil {
		return nil, err
	}

	providers, active := settings.Providers()
	registry := ai.NewRegistry(providers, ai.WithObserver(func(u ai.Usage) {
		applog.L().Debug("provider usage",
			zap.String("provider", u.ProviderID),
			zap.Int("tokens", u.Tokens),
			zap.Float64("cost", u.Cost),
			zap.Duration("elapsed", u.Elapsed),
		)
	}))
	if active != "" {
		if err := registry.SetActive(active); err != nil {
			closeBackend()
			return nil, err
		}
	}
	registry.SetUseCORSProxy(settings.UseCORSProxy)

	executor := erp.NewExecutor(src)
	applog.L().Info("runtime ready",
		zap.String("backend", string(settings.Backend)),
		zap.String("active_provider", active),
	)
	return &runtime{
		settings:     settings,
		registry:     registry,
		executor:     executor,
		assistant:    assistant.New(registry, executor),
		closeBackend: closeBackend,
	}, nil
}

// Close releases the backend and flushes logs.
func (rt *runtime) Close() {
	rt.closeBackend()
	applog.Close()
}
