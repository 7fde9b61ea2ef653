package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/bowergrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Task is the view of a single target execution handed to a TaskFunc.
type Task struct {
	Name   string
	Target string
	Args   []string

	options   cty.Value
	converter config.Converter
}

// NewTask creates the handler view of a task run. options are the already
// merged task-level and target-level options.
func NewTask(name, target string, args []string, options cty.Value, converter config.Converter) *Task {
	return &Task{
		Name:      name,
		Target:    target,
		Args:      args,
		options:   options,
		converter: converter,
	}
}

// Ref returns the task reference in `task:target:arg` form.
func (t *Task) Ref() string {
	parts := []string{t.Name}
	if t.Target != "" {
		parts = append(parts, t.Target)
	}
	parts = append(parts, t.Args...)
	return strings.Join(parts, ":")
}

// Options decodes the merged options onto dst, which should be pre-filled
// with the handler's defaults.
func (t *Task) Options(ctx context.Context, dst any) error {
	if t.converter == nil {
		return fmt.Errorf("task '%s' has no option converter", t.Ref())
	}
	if err := t.converter.DecodeOptions(ctx, t.options, dst); err != nil {
		return fmt.Errorf("invalid options for '%s': %w", t.Ref(), err)
	}
	return nil
}
