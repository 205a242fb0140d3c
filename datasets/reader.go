package datasets

import "math/rand"

// MemoryReader serves a Dataset as an epoch structured stream. Every epoch visits
// all samples in a permutation that depends only on the seed and the epoch, so a
// resumed run sees the same data order at a given epoch as the original run did.
type MemoryReader struct {
	data    Dataset
	seed    int64
	shuffle bool
	epoch   int
	order   []int
}

// NewMemoryReader creates a reader positioned at epoch 0. With shuffle unset the
// samples are served in their stored order every epoch.
func NewMemoryReader(data Dataset, seed int64, shuffle bool) *MemoryReader {
	r := &MemoryReader{
		data:    data,
		seed:    seed,
		shuffle: shuffle,
	}
	r.permute()
	return r
}

func (r *MemoryReader) permute() {
	if r.order == nil {
		r.order = make([]int, len(r.data))
	}
	for i := range r.order {
		r.order[i] = i
	}
	if !r.shuffle {
		return
	}
	rnd := rand.New(rand.NewSource(r.seed + int64(r.epoch)))
	rnd.Shuffle(len(r.order), func(i, j int) { r.order[i], r.order[j] = r.order[j], r.order[i] })
}

// NextEpoch moves to the next epoch
func (r *MemoryReader) NextEpoch() {
	r.epoch++
	r.permute()
}

// Epoch reports the current epoch
func (r *MemoryReader) Epoch() int {
	return r.epoch
}

// Len is the number of samples per epoch
func (r *MemoryReader) Len() int {
	return len(r.data)
}

// At returns the i-th sample of the current epoch
func (r *MemoryReader) At(i int) Sample {
	return r.data[r.order[i]]
}

// Rewind positions the reader at the start of epoch. Only used to set up a
// reader before a run, the trainer itself never moves backwards.
func (r *MemoryReader) Rewind(epoch int) {
	r.epoch = epoch
	r.permute()
}
