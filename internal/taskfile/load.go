package taskfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/fsutil"
	"github.com/vk/bowergrid/internal/hcl"
	"github.com/vk/bowergrid/internal/yamlcfg"
)

// DefaultNames are the task files looked up in the working directory when no
// path is given.
var DefaultNames = []string{"bowergrid.hcl", "bowergrid.yaml", "bowergrid.yml"}

// Loader dispatches to the HCL or YAML loader by file extension. It
// implements config.Loader.
type Loader struct {
	HCL  config.Loader
	YAML config.Loader
}

// NewLoader returns a Loader backed by the standard HCL and YAML loaders.
func NewLoader() *Loader {
	return &Loader{HCL: hcl.NewLoader(), YAML: yamlcfg.NewLoader()}
}

// Load loads every task file under the given paths. With no paths it loads
// the first of DefaultNames present in the working directory, falling back to
// the built-in model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	if len(paths) == 0 {
		found, err := Discover(".")
		if err != nil {
			return nil, err
		}
		if found == "" {
			logger.Debug("No task file found, using the built-in configuration.")
			return Builtin()
		}
		paths = []string{found}
	}

	extensions := append([]string{hcl.Extension}, yamlcfg.Extensions...)
	model := config.NewModel()
	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, extensions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load task file %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("failed to load task file %s: no .hcl, .yaml or .yml files found", path)
		}
		for _, file := range files {
			loader := l.HCL
			if slices.Contains(yamlcfg.Extensions, filepath.Ext(file)) {
				loader = l.YAML
			}
			fileModel, err := loader.Load(ctx, file)
			if err != nil {
				return nil, fmt.Errorf("failed to load task file %s: %w", file, err)
			}
			model.Merge(fileModel)
		}
	}
	logger.Debug("Task files loaded.", "paths", paths, "tasks", len(model.Tasks), "aliases", len(model.Aliases))
	return model, nil
}

// Discover returns the first of DefaultNames that exists in dir, or "" when
// none does.
func Discover(dir string) (string, error) {
	for _, name := range DefaultNames {
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to check for task file %s: %w", path, err)
		}
	}
	return "", nil
}
