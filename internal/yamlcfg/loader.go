// Package yamlcfg loads YAML task files into the format-agnostic config
// model. It mirrors the HCL loader: targets with options, task-level options
// and aliases.
package yamlcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"slices"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions recognized by the YAML loader.
var Extensions = []string{".yaml", ".yml"}

// file is the top-level structure of a YAML task file.
type file struct {
	Targets map[string]map[string]yaml.Node `yaml:"targets"`
	Tasks   map[string]yaml.Node            `yaml:"tasks"`
	Aliases map[string]alias                `yaml:"aliases"`
}

type alias struct {
	Description string   `yaml:"description"`
	Tasks       []string `yaml:"tasks"`
}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds every YAML file under the given paths and merges them into a
// single model in path order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.NewModel()

	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, Extensions...)
		if err != nil {
			return nil, fmt.Errorf("failed to find task files in %s: %w", path, err)
		}
		if len(files) == 0 {
			logger.Warn("No YAML task files found in path", "path", path)
			continue
		}
		for _, name := range files {
			src, err := os.ReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("failed to read task file %s: %w", name, err)
			}
			fileModel, err := l.Parse(ctx, name, src)
			if err != nil {
				return nil, err
			}
			model.Merge(fileModel)
			logger.Debug("Loaded task file.", "file", name)
		}
	}
	return model, nil
}

// Parse parses a single YAML task file held in memory.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	var parsed file
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}

	model := config.NewModel()

	for _, task := range sortedKeys(parsed.Tasks) {
		node := parsed.Tasks[task]
		opts, err := nodeToCty(&node)
		if err != nil {
			return nil, fmt.Errorf("in %s, task '%s': %w", filename, task, err)
		}
		model.SetTaskOptions(task, opts)
	}

	for _, task := range sortedKeys(parsed.Targets) {
		targets := parsed.Targets[task]
		for _, name := range sortedKeys(targets) {
			node := targets[name]
			opts, err := nodeToCty(&node)
			if err != nil {
				return nil, fmt.Errorf("in %s, target '%s:%s': %w", filename, task, name, err)
			}
			model.AddTarget(&config.Target{Task: task, Name: name, Options: opts})
		}
	}

	for _, name := range sortedKeys(parsed.Aliases) {
		a := parsed.Aliases[name]
		if a.Tasks == nil {
			return nil, fmt.Errorf("in %s: alias '%s' has no tasks", filename, name)
		}
		model.AddAlias(&config.Alias{Name: name, Description: a.Description, Tasks: a.Tasks})
	}

	ctxlog.FromContext(ctx).Debug("Translated YAML task file.", "file", filename, "aliases", len(parsed.Aliases))
	return model, nil
}

// nodeToCty converts a decoded YAML node into a cty value. Mappings become
// objects, sequences become tuples and scalars keep their YAML type.
func nodeToCty(node *yaml.Node) (cty.Value, error) {
	switch node.Kind {
	case 0:
		return cty.EmptyObjectVal, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return cty.EmptyObjectVal, nil
		}
		return nodeToCty(node.Content[0])
	case yaml.AliasNode:
		return nodeToCty(node.Alias)
	case yaml.MappingNode:
		attrs := make(map[string]cty.Value, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val, err := nodeToCty(node.Content[i+1])
			if err != nil {
				return cty.NilVal, fmt.Errorf("%s: %w", key, err)
			}
			attrs[key] = val
		}
		return cty.ObjectVal(attrs), nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(node.Content))
		for _, child := range node.Content {
			val, err := nodeToCty(child)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, val)
		}
		return cty.TupleVal(elems), nil
	case yaml.ScalarNode:
		return scalarToCty(node)
	default:
		return cty.NilVal, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func scalarToCty(node *yaml.Node) (cty.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	case "!!int", "!!float":
		n, ok := new(big.Float).SetString(node.Value)
		if !ok {
			var f float64
			if err := node.Decode(&f); err != nil {
				return cty.NilVal, err
			}
			return cty.NumberFloatVal(f), nil
		}
		return cty.NumberVal(n), nil
	default:
		return cty.StringVal(node.Value), nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
