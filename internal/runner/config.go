package runner

import (
	"fmt"
	"slices"

	"github.com/vk/bowergrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// ConfigKey returns the namespaced configuration key for a task's options.
// An empty target yields the task-level key.
func ConfigKey(task, target string) string {
	if target == "" {
		return task + ".options"
	}
	return task + "." + target + ".options"
}

// SetConfig stores a value under a namespaced key.
func (r *Runner) SetConfig(key string, val cty.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config[key] = val
}

// Config returns the value stored under key.
func (r *Runner) Config(key string) (cty.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.config[key]
	return val, ok
}

// SetOptions stores the options of a task target (or task-level options when
// target is empty) and records the target so that running the bare task
// includes it. Setting the same target twice keeps its original position.
func (r *Runner) SetOptions(task, target string, val cty.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config[ConfigKey(task, target)] = val
	if target != "" && !slices.Contains(r.targets[task], target) {
		r.targets[task] = append(r.targets[task], target)
	}
}

// Targets returns the configured targets of a task in the order they were
// first set.
func (r *Runner) Targets(task string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.targets[task])
}

// options returns the task-level options merged under the target options.
func (r *Runner) options(task, target string) (cty.Value, error) {
	taskOpts, _ := r.Config(ConfigKey(task, ""))
	if target == "" {
		return taskOpts, nil
	}
	targetOpts, _ := r.Config(ConfigKey(task, target))
	return mergeOptions(taskOpts, targetOpts)
}

func mergeOptions(base, override cty.Value) (cty.Value, error) {
	if !config.HasOptions(base) {
		return override, nil
	}
	if !config.HasOptions(override) {
		return base, nil
	}
	for _, v := range []cty.Value{base, override} {
		if ty := v.Type(); !ty.IsObjectType() && !ty.IsMapType() {
			return cty.NilVal, fmt.Errorf("options must be an object, got %s", ty.FriendlyName())
		}
	}
	merged := base.AsValueMap()
	if merged == nil {
		merged = make(map[string]cty.Value)
	}
	for k, v := range override.AsValueMap() {
		merged[k] = v
	}
	return cty.ObjectVal(merged), nil
}
