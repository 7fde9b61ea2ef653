package runner

import "errors"

var (
	// ErrTaskNotFound is returned when a reference names no registered task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTargetNotFound is returned when a multi-task is run with a target
	// that has no configuration, or without a target and none configured.
	ErrTargetNotFound = errors.New("target not found")
	// ErrAliasCycle is returned when aliases refer to each other in a loop.
	ErrAliasCycle = errors.New("alias cycle")
)
