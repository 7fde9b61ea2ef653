// Package config defines the format-agnostic task-file model for the
// application, along with the core interfaces (Loader, Converter) for
// loading task files and binding option values to Go structs.
//
// The `config.Model` is the single source of truth for the registrar in the
// `taskfile` package. Concrete implementations of the interfaces, such as
// for HCL and YAML, are provided in separate packages.
package config
