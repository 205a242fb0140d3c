package feedforward

import "bytes"
import "testing"

import "github.com/neurlang/epochtrainer/datasets"
import "github.com/neurlang/epochtrainer/datasets/squareroot"

func newNet() *FeedforwardNetwork {
	var net FeedforwardNetwork
	net.NewLayer(8, 1)
	net.NewLayer(1, 8)
	net.Randomize(1)
	return &net
}

func meanError(net *FeedforwardNetwork, d datasets.Dataset) (e float64) {
	for _, s := range d {
		e += net.Error(s)
	}
	return e / float64(len(d))
}

func TestTrainReducesError(t *testing.T) {
	net := newNet()
	data := squareroot.New(squareroot.Small)
	before := meanError(net, data)
	r := datasets.NewMemoryReader(data, 3, true)
	for epoch := 0; epoch < 30; epoch++ {
		for i := 0; i < r.Len(); i++ {
			net.Train(r.At(i), 0.05)
		}
		r.NextEpoch()
	}
	after := meanError(net, data)
	if !(after < before) {
		t.Errorf("training did not converge: %g -> %g", before, after)
	}
	if after > 0.02 {
		t.Errorf("error too high after training: %g", after)
	}
}

func TestCompressedWeights(t *testing.T) {
	net := newNet()
	var buf bytes.Buffer
	if err := net.WriteCompressedWeights(&buf); err != nil {
		t.Fatal(err)
	}
	var loaded FeedforwardNetwork
	if err := loaded.ReadCompressedWeights(&buf); err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != net.Len() || loaded.LenLayers() != 2 {
		t.Fatalf("bad shape: %d weights in %d layers", loaded.Len(), loaded.LenLayers())
	}
	s := squareroot.Sample(100, squareroot.Small)
	if a, b := net.Infer(s.Input)[0], loaded.Infer(s.Input)[0]; a != b {
		t.Errorf("loaded network infers %g, original %g", b, a)
	}
}

func TestClone(t *testing.T) {
	net := newNet()
	c := net.Clone()
	c.Train(squareroot.Sample(3, 10), 1)
	s := squareroot.Sample(3, 10)
	if net.Error(s) == c.Error(s) {
		t.Errorf("clone shares weights with the original")
	}
}
