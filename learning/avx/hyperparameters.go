package avx

import "github.com/neurlang/epochtrainer/datasets"

type HyperParameters struct {
	Threads int // number of threads for learning, 0 picks DefaultThreads
	Lanes   int // tasks per thread kept in one batch, 0 picks DefaultLanes

	HeldOut datasets.Reader // held-out samples evaluated after each step, may be nil
}

func (h *HyperParameters) threads() int {
	if h.Threads > 0 {
		return h.Threads
	}
	return DefaultThreads()
}

func (h *HyperParameters) lanes() int {
	if h.Lanes > 0 {
		return h.Lanes
	}
	return DefaultLanes()
}
