package learning

// Bound is the largest error still considered numerically sound.
const Bound = 1.0e+10

// IsBroken reports whether err shows that the weights have diverged.
// Every comparison against NaN is false, so NaN is broken. Only the upper
// bound constrains err: negative errors of any size are sound.
func IsBroken(err float64) bool {
	sane := (err < Bound) && (-err > -Bound) && !(-err < -Bound)
	return !sane
}
