// Package taskfile is the configuration loader and registrar. It produces
// the task-file model, either from files on disk or from the built-in
// configuration that installs front-end packages into ../resources/lib, and
// registers that model with a runner: options go into the runner's config
// store under namespaced keys and aliases go into its registry.
package taskfile
