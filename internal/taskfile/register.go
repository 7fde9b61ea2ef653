package taskfile

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/runner"
)

// Register writes the model into the runner: every task's options under
// `<task>.options`, every target's under `<task>.<target>.options`, and every
// alias into the registry. Registering the same model again leaves the runner
// in the same state.
func Register(ctx context.Context, r *runner.Runner, m *config.Model) error {
	logger := ctxlog.FromContext(ctx)

	taskNames := make([]string, 0, len(m.Tasks))
	for name := range m.Tasks {
		taskNames = append(taskNames, name)
	}
	slices.Sort(taskNames)

	for _, name := range taskNames {
		task := m.Tasks[name]
		if config.HasOptions(task.Options) {
			r.SetOptions(name, "", task.Options)
		}
		for _, targetName := range task.Order {
			r.SetOptions(name, targetName, task.Targets[targetName].Options)
			logger.Debug("Registered task configuration.", "key", runner.ConfigKey(name, targetName))
		}
	}

	aliasNames := make([]string, 0, len(m.Aliases))
	for name := range m.Aliases {
		aliasNames = append(aliasNames, name)
	}
	slices.Sort(aliasNames)

	for _, name := range aliasNames {
		alias := m.Aliases[name]
		replaced, err := r.Registry().RegisterAlias(alias.Name, alias.Description, alias.Tasks)
		if err != nil {
			return fmt.Errorf("failed to register alias '%s': %w", alias.Name, err)
		}
		if replaced {
			logger.Warn("Alias replaced an earlier definition.", "alias", alias.Name, "tasks", alias.Tasks)
		}
		logger.Debug("Registered alias.", "alias", alias.Name, "tasks", alias.Tasks)
	}
	return nil
}
