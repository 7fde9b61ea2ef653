// Package runner executes named tasks. It owns an explicit configuration
// store, keyed like `bower.install.options`, that task files write into and
// task handlers read from, and it resolves task references (aliases,
// `task:target` pairs and bare multi-tasks) into an ordered execution plan.
//
// A Runner is created per application instance; there is no process-wide
// state, so tests can build as many runners as they need.
package runner
