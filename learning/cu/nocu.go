//go:build !cuda

package cu

import "go.uber.org/zap"

import "github.com/neurlang/epochtrainer/learning/avx"
import "github.com/neurlang/epochtrainer/log"

// New returns a backend without a device: built without the cuda tag it can hold no task.
func New(h HyperParameters, logger *zap.Logger) (*Backend, error) {
	logger = log.Or(logger).With(zap.String("backend", "cu"))
	logger.Warn("built without cuda support, no task fits on the device")
	return &Backend{
		Backend: avx.New(h.HyperParameters, logger),
	}, nil
}
