// Package registry provides the central "glue" for the task system.
//
// The Registry stores the named tasks a run can refer to: multi-tasks backed
// by compiled Go handlers (registered by modules such as `bower`) and aliases
// whose body is an ordered list of other task references (registered from
// task files, such as `default`).
//
// During application startup, modules register their handlers, the task
// file's aliases are added, and the registry is validated so that every alias
// points at something runnable before any task executes.
package registry
