package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/registry"
)

// Run executes the configured tasks, then keeps re-running them on changes
// when watch mode is enabled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.ListTasks {
		return a.listTasks()
	}

	err := a.runOnce(ctx)
	if !a.config.Watch {
		return err
	}
	if err != nil {
		a.logger.Error("Run failed, waiting for changes.", "error", err)
	}
	return a.watch(ctx)
}

// runOnce runs the configured tasks with a fresh run id.
func (a *App) runOnce(ctx context.Context) error {
	ctx = ctxlog.With(ctx, "run_id", uuid.NewString())
	logger := ctxlog.FromContext(ctx)

	tasks := a.config.Tasks
	logger.Info("🚀 Starting run.", "tasks", tasks)
	if err := a.runner.Run(ctx, tasks...); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	logger.Info("🏁 Run finished.")
	return nil
}

// listTasks prints every registered task with its description.
func (a *App) listTasks() error {
	reg := a.runner.Registry()
	for _, name := range reg.Names() {
		def, _ := reg.Lookup(name)
		line := fmt.Sprintf("%-12s %s", name, def.Description)
		if def.Kind == registry.KindAlias {
			line += fmt.Sprintf(" [%s]", strings.Join(def.Tasks, ", "))
		} else if targets := a.runner.Targets(name); len(targets) > 0 {
			line += fmt.Sprintf(" (targets: %s)", strings.Join(targets, ", "))
		}
		if _, err := fmt.Fprintln(a.outW, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
