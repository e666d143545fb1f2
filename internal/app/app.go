// Package app wires the engine together: configuration, logging, plugin
// registration, flow loading, and the run lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/flowgridgo/internal/config"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/hooks"
	"github.com/vk/flowgridgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	hooks      *hooks.Manager
	model      *config.Model
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup errors (unloadable flow, unknown runner types) are fatal and panic;
// the entrypoint recovers them into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.FlowPath)
	if err != nil {
		panic(fmt.Errorf("failed to load flow configuration: %w", err))
	}
	logger.Debug("Flow configuration loaded into unified model.")

	h := hooks.NewManager()
	reg := registry.New(h)
	if len(modules) == 0 {
		modules = coreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All modules registered.", "count", len(modules), "runnerTypes", reg.RunnerTypes())

	if err := reg.ValidateModel(model); err != nil {
		panic(fmt.Errorf("flow validation failed: %w", err))
	}
	logger.Debug("Flow validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		hooks:    h,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded flow model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
