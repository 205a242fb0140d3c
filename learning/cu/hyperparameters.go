package cu

import "github.com/neurlang/epochtrainer/learning/avx"

type HyperParameters struct {
	avx.HyperParameters

	CuMemoryBytes   uint64 // statically set memory
	CuMemoryPortion uint16 // how many percent of gpu memory to use. 2=half, 3=third
	CuTaskBytes     uint64 // device memory one task needs, 0 picks DefaultTaskBytes
}

// DefaultTaskBytes is the device memory reserved per task when CuTaskBytes is unset
const DefaultTaskBytes = 1 << 20

func (h *HyperParameters) taskBytes() uint64 {
	if h.CuTaskBytes > 0 {
		return h.CuTaskBytes
	}
	return DefaultTaskBytes
}

// tasks sizes the batch by the memory budget
func (h *HyperParameters) tasks(memory uint64) int {
	mem := h.CuMemoryBytes
	if mem == 0 {
		portion := uint64(h.CuMemoryPortion)
		if portion == 0 {
			// 1/384 of device by default
			portion = 384
		}
		mem = memory / portion
	}
	// cap by avail memory
	if mem > memory {
		mem = memory
	}
	return int(mem / h.taskBytes())
}
