// Package bower is the installer plugin: it registers the `bower`
// multi-task, which fetches front-end packages and copies their main files
// into a target directory.
package bower

import (
	"context"
	"fmt"

	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/registry"
)

// TaskName is the name the module registers its multi-task under.
const TaskName = "bower"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Installer replaces the installer built from each target's options.
	Installer Installer
}

// Register registers the `bower` multi-task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterMultiTask(TaskName, "Install bower packages into a target directory.", m.OnRunBower)
}

// OnRunBower is the handler for every `bower:<target>` run.
func (m *Module) OnRunBower(ctx context.Context, task *registry.Task) error {
	logger := ctxlog.FromContext(ctx)

	opts := DefaultOptions()
	if err := task.Options(ctx, &opts); err != nil {
		return err
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options for '%s': %w", task.Ref(), err)
	}
	logger.Debug("Resolved bower options.", "options", opts)

	installer := m.Installer
	if installer == nil {
		b, err := NewInstaller(opts)
		if err != nil {
			return err
		}
		installer = b
	}
	return installer.Install(ctx, opts)
}
