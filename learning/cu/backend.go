// Package cu sizes the trainer batch by the memory of a CUDA device.
package cu

import "github.com/neurlang/epochtrainer/learning/avx"

// Backend sizes the batch by device memory. The kernels of the layers live outside
// this module, so the step itself runs through the host implementation.
type Backend struct {
	*avx.Backend

	max int
}

// MaxConcurrentTasks is the number of tasks the device memory budget holds.
func (b *Backend) MaxConcurrentTasks() int {
	return b.max
}
