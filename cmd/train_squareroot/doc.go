// Package main trains a set of small float networks to approximate the square root.
// Every instance is scheduled by the epoch trainer onto a CPU or CUDA sized backend,
// checkpointed after each epoch and recorded in an optional SQLite ledger so an
// interrupted run can be resumed with --resume.
package main
