package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/fsutil"
	"github.com/vk/bowergrid/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file extension recognized by the HCL loader.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the values exposed as `env.NAME` inside option
	// expressions. It defaults to os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

// Load finds every .hcl file under the given paths, parses them, and merges
// them into a single model in path order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.NewModel()
	parser := hclparse.NewParser()

	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("failed to find task files in %s: %w", path, err)
		}
		if len(files) == 0 {
			logger.Warn("No .hcl task files found in path", "path", path)
			continue
		}
		for _, file := range files {
			hclFile, diags := parser.ParseHCLFile(file)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
			}
			fileModel, err := l.translate(ctx, hclFile, file)
			if err != nil {
				return nil, err
			}
			model.Merge(fileModel)
			logger.Debug("Loaded task file.", "file", file)
		}
	}
	return model, nil
}

// Parse parses a single task file held in memory.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.translate(ctx, hclFile, filename)
}

// translate decodes a parsed file with gohcl and converts it into the
// format-agnostic model.
func (l *Loader) translate(ctx context.Context, file *hcl.File, filename string) (*config.Model, error) {
	var parsed schema.TaskFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	evalCtx := l.evalContext()
	model := config.NewModel()

	for _, t := range parsed.Tasks {
		opts, err := evalOptions(t.Options, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("in %s, task '%s': %w", filename, t.Name, err)
		}
		model.SetTaskOptions(t.Name, opts)
	}

	for _, tg := range parsed.Targets {
		if _, dup := model.Target(tg.Task, tg.Name); dup {
			return nil, fmt.Errorf("in %s: duplicate target '%s:%s'", filename, tg.Task, tg.Name)
		}
		opts, err := evalOptions(tg.Options, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("in %s, target '%s:%s': %w", filename, tg.Task, tg.Name, err)
		}
		model.AddTarget(&config.Target{Task: tg.Task, Name: tg.Name, Options: opts})
	}

	for _, a := range parsed.Aliases {
		if _, dup := model.Aliases[a.Name]; dup {
			return nil, fmt.Errorf("in %s: duplicate alias '%s'", filename, a.Name)
		}
		model.AddAlias(&config.Alias{Name: a.Name, Description: a.Description, Tasks: a.Tasks})
	}

	ctxlog.FromContext(ctx).Debug("Translated HCL task file.",
		"file", filename,
		"tasks", len(parsed.Tasks),
		"targets", len(parsed.Targets),
		"aliases", len(parsed.Aliases),
	)
	return model, nil
}

// evalOptions evaluates every attribute of an options block into a single
// object value. A missing block yields an empty object.
func evalOptions(block *schema.OptionsBlock, evalCtx *hcl.EvalContext) (cty.Value, error) {
	if block == nil || block.Body == nil {
		return cty.EmptyObjectVal, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return cty.NilVal, diags
		}
		vals[name] = val
	}
	return cty.ObjectVal(vals), nil
}

// evalContext exposes the process environment as the `env` object.
func (l *Loader) evalContext() *hcl.EvalContext {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	env := make(map[string]cty.Value)
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}
