// Package datasets implements the epoch structured data stream shared by all tasks of a run
package datasets

import "math/rand"

// Sample is one supervised training instance
type Sample struct {
	Input  []float64
	Output []float64
}

// Reader is the shared data stream. The trainer is the only caller of NextEpoch;
// backends read the current epoch through Len and At, possibly from many goroutines.
type Reader interface {

	// NextEpoch moves to the next epoch, resetting the within epoch position
	NextEpoch()

	// Epoch reports the epoch currently being iterated
	Epoch() int

	// Len is the number of samples in one epoch
	Len() int

	// At returns the i-th sample of the current epoch
	At(i int) Sample
}

// Dataset is an in-memory sample set
type Dataset []Sample

// Split cuts off the last heldOut samples of d, returning the training part and the held-out part
func (d Dataset) Split(heldOut int) (train, test Dataset) {
	if heldOut < 0 {
		heldOut = 0
	}
	if heldOut > len(d) {
		heldOut = len(d)
	}
	return d[:len(d)-heldOut], d[len(d)-heldOut:]
}

// Shuffle returns a copy of d in a random order drawn from seed
func (d Dataset) Shuffle(seed int64) Dataset {
	o := make(Dataset, len(d))
	copy(o, d)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(o), func(i, j int) { o[i], o[j] = o[j], o[i] })
	return o
}
