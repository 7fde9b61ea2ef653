package taskfile

import (
	"fmt"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/hcl"
	"github.com/vk/bowergrid/internal/runner"
	"github.com/vk/bowergrid/modules/bower"
)

// InstallTarget is the target of the `bower` task configured by the
// built-in task file.
const InstallTarget = "install"

// InstallConfig is the static configuration handed to the installer.
type InstallConfig struct {
	TargetDir string       `cty:"targetDir"`
	Cleanup   bool         `cty:"cleanup"`
	Layout    bower.Layout `cty:"layout"`
	Verbose   bool         `cty:"verbose"`
}

// NewInstallConfig returns the built-in install configuration. It performs
// no validation; the installer rejects bad values when it runs.
func NewInstallConfig() InstallConfig {
	return InstallConfig{
		TargetDir: "../resources/lib",
		Cleanup:   true,
		Layout:    bower.LayoutByComponent,
		Verbose:   true,
	}
}

// ModelFor builds a model that configures `bower:install` with cfg and makes
// `default` run it.
func ModelFor(cfg InstallConfig) (*config.Model, error) {
	opts, err := hcl.NewConverter().ToCtyValue(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to convert install config: %w", err)
	}

	m := config.NewModel()
	m.AddTarget(&config.Target{Task: bower.TaskName, Name: InstallTarget, Options: opts})
	m.AddAlias(&config.Alias{
		Name:        runner.DefaultTask,
		Description: "Install front-end packages.",
		Tasks:       []string{bower.TaskName + ":" + InstallTarget},
	})
	return m, nil
}

// Builtin returns the model used when no task file is found.
func Builtin() (*config.Model, error) {
	return ModelFor(NewInstallConfig())
}
