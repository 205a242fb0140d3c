package squareroot

import "math"

import "github.com/neurlang/epochtrainer/datasets"

const Small = 1 << 8
const Medium = 1 << 10
const Big = 1 << 12
const Huge = 1 << 14

// Sample returns the training instance for the integer n out of size
func Sample(n, size int) datasets.Sample {
	x := float64(n) / float64(size)
	return datasets.Sample{
		Input:  []float64{x},
		Output: []float64{math.Sqrt(x)},
	}
}

// New returns the dataset of the first size integers
func New(size int) (ret datasets.Dataset) {
	for i := 0; i < size; i++ {
		ret = append(ret, Sample(i, size))
	}
	return
}
