package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of one or more task
// files.
type Model struct {
	// Tasks holds per-task configuration keyed by task name.
	Tasks map[string]*Task
	// Aliases holds alias tasks keyed by alias name.
	Aliases map[string]*Alias
}

// Task is the configuration of a single multi-task: task-level options plus
// its named targets.
type Task struct {
	Name    string
	Options cty.Value
	Targets map[string]*Target
	// Order records target names in declaration order.
	Order []string
}

// Target is one named configuration of a multi-task, e.g. `install` in
// `bower:install`.
type Target struct {
	Task    string
	Name    string
	Options cty.Value
}

// Alias is a task whose body is an ordered list of task references.
type Alias struct {
	Name        string
	Description string
	Tasks       []string
}

// NewModel returns an empty, initialized Model.
func NewModel() *Model {
	return &Model{
		Tasks:   make(map[string]*Task),
		Aliases: make(map[string]*Alias),
	}
}

// task returns the task configuration with the given name, creating it when
// it does not exist yet.
func (m *Model) task(name string) *Task {
	t, ok := m.Tasks[name]
	if !ok {
		t = &Task{Name: name, Options: cty.NilVal, Targets: make(map[string]*Target)}
		m.Tasks[name] = t
	}
	return t
}

// SetTaskOptions sets the task-level options of a task.
func (m *Model) SetTaskOptions(task string, opts cty.Value) {
	m.task(task).Options = opts
}

// AddTarget adds or replaces a target. Replacing keeps the original position.
func (m *Model) AddTarget(target *Target) {
	t := m.task(target.Task)
	if _, exists := t.Targets[target.Name]; !exists {
		t.Order = append(t.Order, target.Name)
	}
	t.Targets[target.Name] = target
}

// AddAlias adds or replaces an alias.
func (m *Model) AddAlias(alias *Alias) {
	m.Aliases[alias.Name] = alias
}

// Target looks up a target by task and target name.
func (m *Model) Target(task, target string) (*Target, bool) {
	t, ok := m.Tasks[task]
	if !ok {
		return nil, false
	}
	tg, ok := t.Targets[target]
	return tg, ok
}

// Merge folds other into m. Targets, task options and aliases from other
// win over those already in m.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	for _, name := range sortedKeys(other.Tasks) {
		t := other.Tasks[name]
		if HasOptions(t.Options) {
			m.SetTaskOptions(name, t.Options)
		} else {
			m.task(name)
		}
		for _, targetName := range t.Order {
			m.AddTarget(t.Targets[targetName])
		}
	}
	for _, name := range sortedKeys(other.Aliases) {
		m.AddAlias(other.Aliases[name])
	}
}

// HasOptions reports whether v carries an options object. Both cty.NilVal
// and null values count as absent.
func HasOptions(v cty.Value) bool {
	return v != cty.NilVal && !v.IsNull()
}

// ParseRef splits a task reference of the form `task[:target[:arg...]]`.
func ParseRef(ref string) (task, target string, args []string, err error) {
	if strings.TrimSpace(ref) == "" {
		return "", "", nil, fmt.Errorf("empty task reference")
	}
	parts := strings.Split(ref, ":")
	if parts[0] == "" {
		return "", "", nil, fmt.Errorf("invalid task reference %q: missing task name", ref)
	}
	task = parts[0]
	if len(parts) > 1 {
		target = parts[1]
	}
	if len(parts) > 2 {
		args = parts[2:]
	}
	return task, target, args, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
