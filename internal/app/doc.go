// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle (load the
// task file, register it with a runner, run the requested tasks, optionally
// watch for changes), decoupled from any specific entrypoint like a CLI.
package app
