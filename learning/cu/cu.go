//go:build cuda

package cu

import "github.com/pkg/errors"
import "go.uber.org/zap"

import "gorgonia.org/cu"

import "github.com/neurlang/epochtrainer/learning/avx"
import "github.com/neurlang/epochtrainer/log"

// New returns a backend sized by the memory of device 0. logger may be nil.
func New(h HyperParameters, logger *zap.Logger) (*Backend, error) {
	logger = log.Or(logger).With(zap.String("backend", "cu"))
	memory, err := cu.Device(0).TotalMem()
	if err != nil {
		return nil, errors.Wrap(err, "query device memory")
	}
	name, _ := cu.Device(0).Name()
	b := &Backend{
		Backend: avx.New(h.HyperParameters, logger),
		max:     h.tasks(uint64(memory)),
	}
	logger.Info("device found", zap.String("device", name), zap.Int64("memory", memory), zap.Int("max_tasks", b.max))
	return b, nil
}
