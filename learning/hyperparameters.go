package learning

import "github.com/pkg/errors"

// HyperParameters is the immutable training configuration shared by every task of a run.
type HyperParameters struct {
	EpochCount int `yaml:"epoch_count"` // total epochs a task trains for, counted from epoch 0

	LearningRate float64 `yaml:"learning_rate"` // base learning rate

	DecayTailEpochCount int     `yaml:"decay_tail_epoch_count"` // decay applies in the final this many epochs
	DecayRate           float64 `yaml:"decay_rate"`             // per epoch tail decay, in (0, 1]

	RiseHeadEpochCount int     `yaml:"rise_head_epoch_count"` // ramp applies in the first this many epochs
	RiseRate           float64 `yaml:"rise_rate"`             // per epoch head factor

	// DecayOnHeldOutIncrease multiplies the rate by DecayRate every time the
	// held-out error of a step is worse than the one of the step before.
	DecayOnHeldOutIncrease bool `yaml:"decay_on_held_out_increase"`
}

// Default returns the hyperparameters used when nothing else is configured.
func Default() HyperParameters {
	return HyperParameters{
		EpochCount:   50,
		LearningRate: 0.02,
		DecayRate:    0.5,
		RiseRate:     1,
	}
}

// Validate reports the first setting that cannot drive a run.
func (h HyperParameters) Validate() error {
	if h.EpochCount < 1 {
		return errors.Errorf("epoch count must be positive, got %d", h.EpochCount)
	}
	if !(h.LearningRate > 0) {
		return errors.Errorf("learning rate must be positive, got %g", h.LearningRate)
	}
	if h.DecayTailEpochCount < 0 || h.RiseHeadEpochCount < 0 {
		return errors.New("head and tail epoch counts must not be negative")
	}
	if !(h.DecayRate > 0 && h.DecayRate <= 1) {
		return errors.Errorf("decay rate must be in (0, 1], got %g", h.DecayRate)
	}
	if !(h.RiseRate > 0) {
		return errors.Errorf("rise rate must be positive, got %g", h.RiseRate)
	}
	return nil
}

// IsLastEpoch reports whether a task at epoch has used up its epoch budget.
func (h HyperParameters) IsLastEpoch(epoch int) bool {
	return epoch >= h.EpochCount
}
