// Package AVX implements the batched training step of the trainer on the CPU
package avx

import "runtime"

// DefaultLanes reports the recommended number of tasks per thread on this platform
// Can't return 0.
func DefaultLanes() int {
	return defaultLanes
}

// DefaultThreads reports the recommended number of training threads on this platform
// Can't return 0.
func DefaultThreads() int {
	return defaultThreads
}

var defaultLanes int = 1

var defaultThreads int = max(runtime.NumCPU(), 1)
