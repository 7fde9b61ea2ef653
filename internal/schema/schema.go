// Package schema holds the gohcl decoding structs for HCL task files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// OptionsBlock represents the content of an 'options' block. Its attributes
// are evaluated as a free-form object because their shape is owned by the
// task that consumes them.
type OptionsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Target represents a `target "<task>" "<name>"` block: one named
// configuration of a multi-task.
type Target struct {
	Task    string        `hcl:"task,label"`
	Name    string        `hcl:"name,label"`
	Options *OptionsBlock `hcl:"options,block"`
}

// Task represents a `task "<name>"` block carrying task-level options shared
// by all of the task's targets.
type Task struct {
	Name    string        `hcl:"name,label"`
	Options *OptionsBlock `hcl:"options,block"`
}

// Alias represents an `alias "<name>"` block whose body is an ordered list of
// task references.
type Alias struct {
	Name        string   `hcl:"name,label"`
	Description string   `hcl:"description,optional"`
	Tasks       []string `hcl:"tasks"`
}

// TaskFile represents the top-level structure of a task file.
type TaskFile struct {
	Targets []*Target `hcl:"target,block"`
	Tasks   []*Task   `hcl:"task,block"`
	Aliases []*Alias  `hcl:"alias,block"`
}
