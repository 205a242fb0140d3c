//go:build !noasm && amd64

package avx

import "github.com/klauspost/cpuid/v2"

func init() {
	// Wide vector units keep more tasks busy per thread
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ):
		defaultLanes = 4
	case cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3):
		defaultLanes = 2
	default:
		defaultLanes = 1
	}
	if cpuid.CPU.PhysicalCores > 0 {
		defaultThreads = cpuid.CPU.PhysicalCores
	}
}
