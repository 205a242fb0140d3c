package trainer

import "fmt"

import "github.com/pkg/errors"

// ErrNoConcurrency is matched by errors.Is on a StartupError.
var ErrNoConcurrency = errors.New("the trainer is unable to train even a single network")

// StartupError is returned by Train when the backend cannot hold a single task.
// It is fatal; retrying with the same backend fails the same way.
type StartupError struct {
	MaxConcurrentTasks int // what the backend reported
	MaxBatchSize       int // the configured cap, 0 if none
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("%s (backend concurrency %d, batch cap %d)", ErrNoConcurrency, e.MaxConcurrentTasks, e.MaxBatchSize)
}

func (e *StartupError) Unwrap() error {
	return ErrNoConcurrency
}
