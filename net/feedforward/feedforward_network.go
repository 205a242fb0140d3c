// Package feedforward implements a dense feedforward network type
package feedforward

import "math"
import "math/rand"

import "github.com/neurlang/epochtrainer/datasets"

// Layer is one fully connected layer. Row o of Weights holds the Inputs weights
// of output o followed by its bias.
type Layer struct {
	Inputs  int       `json:"inputs"`
	Outputs int       `json:"outputs"`
	Weights []float64 `json:"weights"`
}

func (l *Layer) row(o int) []float64 {
	return l.Weights[o*(l.Inputs+1) : (o+1)*(l.Inputs+1)]
}

// FeedforwardNetwork is the feedforward network. Hidden layers use tanh, the final layer is linear.
type FeedforwardNetwork struct {
	layers []Layer
}

// Len returns the number of trainable weights inside the network.
func (f FeedforwardNetwork) Len() (o int) {
	for _, v := range f.layers {
		o += len(v.Weights)
	}
	return
}

// LenLayers returns the number of layers.
func (f FeedforwardNetwork) LenLayers() int {
	return len(f.layers)
}

// NewLayer adds a layer of n outputs to the end of network, each reading inputs values.
func (f *FeedforwardNetwork) NewLayer(n, inputs int) {
	f.layers = append(f.layers, Layer{
		Inputs:  inputs,
		Outputs: n,
		Weights: make([]float64, n*(inputs+1)),
	})
}

// Randomize sets all weights to uniform noise scaled by the fan-in of each layer.
func (f *FeedforwardNetwork) Randomize(seed int64) {
	r := rand.New(rand.NewSource(seed))
	for l := range f.layers {
		scale := 1 / math.Sqrt(float64(f.layers[l].Inputs+1))
		for i := range f.layers[l].Weights {
			f.layers[l].Weights[i] = (2*r.Float64() - 1) * scale
		}
	}
}

// Clone returns a deep copy of the network.
func (f FeedforwardNetwork) Clone() *FeedforwardNetwork {
	o := &FeedforwardNetwork{layers: make([]Layer, len(f.layers))}
	for i, l := range f.layers {
		o.layers[i] = l
		o.layers[i].Weights = append([]float64(nil), l.Weights...)
	}
	return o
}

// forward returns the activations of every layer, starting with the input itself.
func (f FeedforwardNetwork) forward(input []float64) [][]float64 {
	acts := make([][]float64, 0, len(f.layers)+1)
	acts = append(acts, input)
	for l := range f.layers {
		layer := &f.layers[l]
		in := acts[len(acts)-1]
		out := make([]float64, layer.Outputs)
		for o := range out {
			w := layer.row(o)
			sum := w[layer.Inputs]
			for i := 0; i < layer.Inputs && i < len(in); i++ {
				sum += w[i] * in[i]
			}
			if l+1 < len(f.layers) {
				sum = math.Tanh(sum)
			}
			out[o] = sum
		}
		acts = append(acts, out)
	}
	return acts
}

// Infer computes the network output for input.
func (f FeedforwardNetwork) Infer(input []float64) []float64 {
	acts := f.forward(input)
	return acts[len(acts)-1]
}

func squaredError(out, expected []float64) (e float64) {
	for i := range out {
		var d = out[i]
		if i < len(expected) {
			d -= expected[i]
		}
		e += d * d
	}
	if len(out) > 0 {
		e /= float64(len(out))
	}
	return
}

// Error is the mean squared error of the network on s.
func (f FeedforwardNetwork) Error(s datasets.Sample) float64 {
	return squaredError(f.Infer(s.Input), s.Output)
}

// Train does one stochastic gradient descent update on s with the given rate.
// It returns the error on s measured before the update.
func (f *FeedforwardNetwork) Train(s datasets.Sample, rate float64) float64 {
	acts := f.forward(s.Input)
	out := acts[len(acts)-1]
	e := squaredError(out, s.Output)

	// delta of the linear output layer
	delta := make([]float64, len(out))
	for i := range out {
		var d = out[i]
		if i < len(s.Output) {
			d -= s.Output[i]
		}
		delta[i] = 2 * d / float64(len(out))
	}

	for l := len(f.layers) - 1; l >= 0; l-- {
		layer := &f.layers[l]
		in := acts[l]
		var prev []float64
		if l > 0 {
			prev = make([]float64, layer.Inputs)
		}
		for o := 0; o < layer.Outputs; o++ {
			w := layer.row(o)
			for i := 0; i < layer.Inputs && i < len(in); i++ {
				if prev != nil {
					prev[i] += delta[o] * w[i]
				}
				w[i] -= rate * delta[o] * in[i]
			}
			w[layer.Inputs] -= rate * delta[o]
		}
		if prev != nil {
			// back through tanh of the layer below
			for i := range prev {
				prev[i] *= 1 - in[i]*in[i]
			}
		}
		delta = prev
	}
	return e
}
