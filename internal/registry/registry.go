package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// Module is the interface that all task modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// TaskFunc is the Go handler behind a multi-task. It is invoked once per
// target being run.
type TaskFunc func(ctx context.Context, task *Task) error

// Kind distinguishes handler-backed tasks from aliases.
type Kind int

const (
	// KindMulti is a task backed by a Go handler and configured by targets.
	KindMulti Kind = iota
	// KindAlias is a task whose body is a list of other task references.
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindMulti:
		return "multi"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Definition is a registered task.
type Definition struct {
	Name        string
	Description string
	Kind        Kind
	// Fn is set for KindMulti.
	Fn TaskFunc
	// Tasks is set for KindAlias.
	Tasks []string
}

// Registry holds all registered tasks for a single application instance.
type Registry struct {
	defs map[string]*Definition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// RegisterMultiTask registers a Go handler under a task name.
func (r *Registry) RegisterMultiTask(name, description string, fn TaskFunc) {
	if name == "" {
		panic("task name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("task '%s' registered with a nil handler", name))
	}
	if _, exists := r.defs[name]; exists {
		panic(fmt.Sprintf("task with name '%s' already registered", name))
	}
	slog.Debug("Registering multi-task.", "name", name)
	r.defs[name] = &Definition{Name: name, Description: description, Kind: KindMulti, Fn: fn}
}

// RegisterAlias registers an alias task. Registering the same body twice is
// a no-op; a different body replaces the previous one and replaced reports
// true. An alias cannot shadow a multi-task.
func (r *Registry) RegisterAlias(name, description string, tasks []string) (replaced bool, err error) {
	if name == "" {
		return false, fmt.Errorf("alias name must not be empty")
	}
	if existing, ok := r.defs[name]; ok {
		if existing.Kind != KindAlias {
			return false, fmt.Errorf("alias '%s' conflicts with a registered %s task", name, existing.Kind)
		}
		if slices.Equal(existing.Tasks, tasks) {
			existing.Description = description
			return false, nil
		}
		replaced = true
	}
	slog.Debug("Registering alias.", "name", name, "tasks", tasks, "replaced", replaced)
	r.defs[name] = &Definition{
		Name:        name,
		Description: description,
		Kind:        KindAlias,
		Tasks:       slices.Clone(tasks),
	}
	return replaced, nil
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns every registered task name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	return len(r.defs)
}
