package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vk/bowergrid/internal/config"
	"github.com/vk/bowergrid/internal/ctxlog"
	"github.com/vk/bowergrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTask is run when no task is named.
const DefaultTask = "default"

// Runner resolves and executes tasks registered in a registry.
type Runner struct {
	registry  *registry.Registry
	converter config.Converter

	// Force keeps running after a task fails; all failures are returned
	// together at the end.
	Force bool

	mu      sync.RWMutex
	config  map[string]cty.Value
	targets map[string][]string

	runMu sync.Mutex
}

// Step is one resolved unit of execution: a multi-task with a single target.
type Step struct {
	Task   string
	Target string
	Args   []string
}

// Ref returns the step in `task:target:arg` form.
func (s Step) Ref() string {
	parts := append([]string{s.Task, s.Target}, s.Args...)
	return strings.Join(parts, ":")
}

// New creates a Runner over the given registry. The converter is handed to
// tasks so they can decode their options.
func New(reg *registry.Registry, converter config.Converter) *Runner {
	return &Runner{
		registry:  reg,
		converter: converter,
		config:    make(map[string]cty.Value),
		targets:   make(map[string][]string),
	}
}

// Registry returns the runner's task registry.
func (r *Runner) Registry() *registry.Registry {
	return r.registry
}

// Plan resolves task references into the ordered list of steps Run would
// execute. With no references it resolves DefaultTask.
func (r *Runner) Plan(refs ...string) ([]Step, error) {
	if len(refs) == 0 {
		refs = []string{DefaultTask}
	}
	var steps []Step
	for _, ref := range refs {
		expanded, err := r.expand(ref, nil)
		if err != nil {
			return nil, err
		}
		steps = append(steps, expanded...)
	}
	return steps, nil
}

func (r *Runner) expand(ref string, stack []string) ([]Step, error) {
	task, target, args, err := config.ParseRef(ref)
	if err != nil {
		return nil, err
	}
	def, ok := r.registry.Lookup(task)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrTaskNotFound, task)
	}

	switch def.Kind {
	case registry.KindAlias:
		if slices.Contains(stack, task) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrAliasCycle, strings.Join(stack, " -> "), task)
		}
		if target != "" {
			return nil, fmt.Errorf("%w: alias '%s' has no target '%s'", ErrTargetNotFound, task, target)
		}
		var steps []Step
		for _, child := range def.Tasks {
			expanded, err := r.expand(child, append(slices.Clone(stack), task))
			if err != nil {
				return nil, err
			}
			steps = append(steps, expanded...)
		}
		return steps, nil

	default:
		if target == "" {
			targets := r.Targets(task)
			if len(targets) == 0 {
				return nil, fmt.Errorf("%w: task '%s' has no configured targets", ErrTargetNotFound, task)
			}
			steps := make([]Step, 0, len(targets))
			for _, t := range targets {
				steps = append(steps, Step{Task: task, Target: t, Args: args})
			}
			return steps, nil
		}
		if _, ok := r.Config(ConfigKey(task, target)); !ok {
			return nil, fmt.Errorf("%w: '%s:%s'", ErrTargetNotFound, task, target)
		}
		return []Step{{Task: task, Target: target, Args: args}}, nil
	}
}

// Run resolves the references and executes the resulting steps in order.
// Unknown tasks and targets are reported before anything executes. Runs are
// serialized; a second call waits for the first to finish.
func (r *Runner) Run(ctx context.Context, refs ...string) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	logger := ctxlog.FromContext(ctx)
	steps, err := r.Plan(refs...)
	if err != nil {
		return err
	}
	logger.Debug("Execution plan resolved.", "steps", len(steps))

	var failures []error
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runStep(ctx, step); err != nil {
			if !r.Force {
				return err
			}
			ctxlog.FromContext(ctx).Error("Task failed, continuing because force is set.", "task", step.Ref(), "error", err)
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	ctx = ctxlog.With(ctx, "task", step.Ref())
	logger := ctxlog.FromContext(ctx)

	def, ok := r.registry.Lookup(step.Task)
	if !ok || def.Kind != registry.KindMulti {
		return fmt.Errorf("%w: '%s'", ErrTaskNotFound, step.Task)
	}
	opts, err := r.options(step.Task, step.Target)
	if err != nil {
		return fmt.Errorf("task '%s' failed: %w", step.Ref(), err)
	}

	logger.Info("Running task.")
	start := time.Now()
	if err := def.Fn(ctx, registry.NewTask(step.Task, step.Target, step.Args, opts, r.converter)); err != nil {
		logger.Debug("Task returned an error.", "duration", time.Since(start), "error", err)
		return fmt.Errorf("task '%s' failed: %w", step.Ref(), err)
	}
	logger.Info("Task finished.", "duration", time.Since(start))
	return nil
}
