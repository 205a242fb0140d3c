package trainer

import "context"

import "github.com/neurlang/epochtrainer/datasets"

// Step is one batched training step: every task trains one epoch of Reader
// with the rate at the same position in Rates.
type Step struct {
	Tasks  []*Task
	Rates  []float64
	Reader datasets.Reader
}

// StepResult carries one training error per task, in the order of Step.Tasks,
// and one held-out error measured for the batch as a whole.
type StepResult struct {
	Errors       []float64
	HeldOutError float64
}

// Backend runs the numeric part of training. TrainBatch blocks until every task
// of the step is done; it may mutate the tasks' models but nothing else.
type Backend interface {

	// MaxConcurrentTasks is the largest batch the backend can train at once. Queried once per run.
	MaxConcurrentTasks() int

	// TrainBatch trains every task of the step for one epoch.
	TrainBatch(ctx context.Context, step Step) (StepResult, error)
}
