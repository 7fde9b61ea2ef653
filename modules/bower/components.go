package bower

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vk/bowergrid/internal/ctxlog"
)

// Component is an installed package found in the components directory.
type Component struct {
	Name string
	Dir  string
	// Files are the component's main files, relative to Dir.
	Files []string
}

// manifest is the subset of a bower.json (or .bower.json) file the installer
// reads.
type manifest struct {
	Name         string            `json:"name"`
	Main         mainFiles         `json:"main"`
	Dependencies map[string]string `json:"dependencies"`
}

// mainFiles accepts both `"main": "a.js"` and `"main": ["a.js", "a.css"]`.
type mainFiles []string

func (m *mainFiles) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*m = mainFiles{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("main must be a string or a list of strings: %w", err)
	}
	*m = list
	return nil
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

// componentManifests are tried in order; bower writes .bower.json on install.
var componentManifests = []string{".bower.json", "bower.json"}

// DiscoverComponents lists the components installed in dir in name order. A
// missing directory yields no components.
func DiscoverComponents(ctx context.Context, dir string) ([]Component, error) {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Components directory does not exist.", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read components directory %s: %w", dir, err)
	}

	var components []Component
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		compDir := filepath.Join(dir, entry.Name())
		comp, err := loadComponent(ctx, compDir, entry.Name())
		if err != nil {
			return nil, err
		}
		components = append(components, comp)
	}
	slices.SortFunc(components, func(a, b Component) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return components, nil
}

func loadComponent(ctx context.Context, dir, dirName string) (Component, error) {
	logger := ctxlog.FromContext(ctx)
	comp := Component{Name: dirName, Dir: dir}

	var m *manifest
	for _, name := range componentManifests {
		found, err := readManifest(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return comp, err
		}
		m = found
		break
	}
	if m == nil {
		logger.Warn("Component has no manifest, nothing will be copied.", "component", dirName)
		return comp, nil
	}
	if m.Name != "" {
		if isLocalName(m.Name) {
			comp.Name = m.Name
		} else {
			logger.Warn("Component name is not a plain directory name, using the directory name.", "component", dirName, "name", m.Name)
		}
	}

	for _, pattern := range m.Main {
		matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(pattern)))
		if err != nil {
			return comp, fmt.Errorf("component '%s': invalid main pattern %q: %w", comp.Name, pattern, err)
		}
		if len(matches) == 0 {
			logger.Warn("Main file not found in component.", "component", comp.Name, "main", pattern)
			continue
		}
		for _, match := range matches {
			rel, err := filepath.Rel(dir, match)
			if err != nil {
				return comp, err
			}
			if !filepath.IsLocal(rel) {
				logger.Warn("Main file lies outside the component, skipping.", "component", comp.Name, "main", pattern, "file", match)
				continue
			}
			if !slices.Contains(comp.Files, rel) {
				comp.Files = append(comp.Files, rel)
			}
		}
	}
	if len(comp.Files) == 0 {
		logger.Warn("Component declares no main files, nothing will be copied.", "component", comp.Name)
	}
	return comp, nil
}

// isLocalName reports whether name is a single path element that stays
// inside the directory it is joined to.
func isLocalName(name string) bool {
	return filepath.IsLocal(name) && !strings.ContainsAny(name, `/\`)
}
