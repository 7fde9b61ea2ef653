// Package dag provides a small directed graph of named nodes used to check
// task aliases for cycles before anything runs.
package dag
