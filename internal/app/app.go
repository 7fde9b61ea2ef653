package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/hcl"
	"github.com/vk/bowergrid/internal/registry"
	"github.com/vk/bowergrid/internal/runner"
	"github.com/vk/bowergrid/internal/taskfile"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	modules []registry.Module
	runner  *runner.Runner

	debounce time.Duration
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and
// runner. A task file that cannot be loaded is a fatal startup error and
// panics; the entrypoint recovers it into a clean message.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = taskfile.NewLoader()
	}
	if len(modules) == 0 {
		modules = coreModules
	}

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		loader:  loader,
		modules: modules,
	}

	r, err := a.build(ctx)
	if err != nil {
		panic(err)
	}
	a.runner = r
	return a
}

// build loads the task files and returns a runner with every module and
// the task file registered.
func (a *App) build(ctx context.Context) (*runner.Runner, error) {
	logger := ctxlog.FromContext(ctx)

	model, err := a.loader.Load(ctx, a.config.TaskFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Task file loaded into unified model.", "tasks", len(model.Tasks), "aliases", len(model.Aliases))

	reg := registry.New()
	for _, mod := range a.modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(a.modules))

	r := runner.New(reg, hcl.NewConverter())
	r.Force = a.config.Force
	if err := taskfile.Register(ctx, r, model); err != nil {
		return nil, err
	}

	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.", "tasks", reg.Len())
	return r, nil
}

// Runner returns the application's runner. This is primarily for testing.
func (a *App) Runner() *runner.Runner {
	return a.runner
}
