// Package learning holds the per-run training rules shared by all backends:
// hyperparameters, the epoch indexed learning rate schedule and the divergence check.
package learning

import "math"

// Rate returns the global learning rate for a task about to train its epoch-th epoch.
// The tail decay kicks in for the final DecayTailEpochCount epochs, the head rise
// covers the first RiseHeadEpochCount epochs.
func (h HyperParameters) Rate(epoch int) float64 {
	var tail = 1.0
	firstWithDecay := max(h.EpochCount-h.DecayTailEpochCount, 1)
	if n := epoch - firstWithDecay + 1; n > 0 {
		tail = math.Pow(h.DecayRate, float64(n))
	}

	var head = 1.0
	if n := h.RiseHeadEpochCount - epoch; n > 0 {
		head = math.Pow(h.RiseRate, float64(n))
	}

	return tail * head * h.LearningRate
}

// Adaptive is the held-out driven rate attenuation. The zero value is not usable, see NewAdaptive.
type Adaptive struct {
	enabled  bool
	decay    float64
	factor   float64
	previous float64
	seen     bool
}

// NewAdaptive returns the attenuation for h. It stays at 1 unless h.DecayOnHeldOutIncrease is set.
func NewAdaptive(h HyperParameters) *Adaptive {
	return &Adaptive{
		enabled: h.DecayOnHeldOutIncrease,
		decay:   h.DecayRate,
		factor:  1,
	}
}

// Factor is the current multiplier applied on top of Rate.
func (a *Adaptive) Factor() float64 {
	return a.factor
}

// Observe records the held-out error of a finished step and reports whether the factor decayed.
func (a *Adaptive) Observe(heldOut float64) (decayed bool) {
	if a.enabled && a.seen && heldOut > a.previous {
		a.factor *= a.decay
		decayed = true
	}
	a.previous, a.seen = heldOut, true
	return
}
