package feedforward

import "compress/lzw"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"

// WriteCompressedWeightsToFile writes model weights to a lzw file
func (f FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = f.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteCompressedWeights writes model weights to a writer
func (f FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)

	if err := json.NewEncoder(lw).Encode(f.layers); err != nil {
		lw.Close()
		return errors.Wrap(err, "encode weights")
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads model weights from a lzw file
func (f *FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return f.ReadCompressedWeights(file)
}

// ReadCompressedWeights reads model weights from a reader, replacing the layers of f
func (f *FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var layers []Layer
	if err := json.NewDecoder(lr).Decode(&layers); err != nil {
		return errors.Wrap(err, "decode weights")
	}
	for i, l := range layers {
		if len(l.Weights) != l.Outputs*(l.Inputs+1) {
			return errors.Errorf("layer %d: %d weights for %dx%d", i, len(l.Weights), l.Outputs, l.Inputs)
		}
	}
	f.layers = layers
	return nil
}
