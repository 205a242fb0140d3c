package avx

import "context"
import "fmt"

import "github.com/pkg/errors"
import "go.uber.org/atomic"
import "go.uber.org/zap"

import "github.com/neurlang/epochtrainer/datasets"
import "github.com/neurlang/epochtrainer/log"
import "github.com/neurlang/epochtrainer/net/feedforward"
import "github.com/neurlang/epochtrainer/parallel"
import "github.com/neurlang/epochtrainer/trainer"

// Backend trains feedforward networks on the CPU, one goroutine per task up to Threads at once.
type Backend struct {
	HyperParameters

	logger *zap.Logger
}

// New returns a CPU backend. logger may be nil.
func New(h HyperParameters, logger *zap.Logger) *Backend {
	return &Backend{
		HyperParameters: h,
		logger:          log.Or(logger).With(zap.String("backend", "avx")),
	}
}

// MaxConcurrentTasks is Threads times Lanes.
func (b *Backend) MaxConcurrentTasks() int {
	return b.threads() * b.lanes()
}

// Networks extracts the feedforward networks of the tasks of a step.
func Networks(tasks []*trainer.Task) ([]*feedforward.FeedforwardNetwork, error) {
	nets := make([]*feedforward.FeedforwardNetwork, len(tasks))
	for i, t := range tasks {
		net, ok := t.Model.(*feedforward.FeedforwardNetwork)
		if !ok || net == nil {
			return nil, errors.Errorf("task %d: unsupported model %T", t.Index, t.Model)
		}
		nets[i] = net
	}
	return nets, nil
}

// TrainBatch trains every network on one epoch of the reader, then evaluates the held-out set.
func (b *Backend) TrainBatch(ctx context.Context, step trainer.Step) (trainer.StepResult, error) {
	nets, err := Networks(step.Tasks)
	if err != nil {
		return trainer.StepResult{}, err
	}
	if len(step.Rates) != len(nets) {
		return trainer.StepResult{}, errors.Errorf("%d rates for %d tasks", len(step.Rates), len(nets))
	}

	errs := make([]float64, len(nets))
	err = parallel.ForEach(ctx, len(nets), b.threads(), func(_ context.Context, i int) error {
		errs[i] = TrainEpoch(nets[i], step.Reader, step.Rates[i])
		return nil
	})
	if err != nil {
		return trainer.StepResult{}, err
	}

	heldOut, err := Evaluate(ctx, nets, b.HeldOut, b.threads())
	if err != nil {
		return trainer.StepResult{}, err
	}
	b.logger.Debug("batch trained", zap.Int("tasks", len(nets)), zap.Int("epoch", step.Reader.Epoch()),
		zap.String("errors", fmt.Sprint(errs)), zap.Float64("held_out_error", heldOut))
	return trainer.StepResult{Errors: errs, HeldOutError: heldOut}, nil
}

// TrainEpoch runs one stochastic gradient descent pass of net over the current epoch of r
// and returns the mean error seen during the pass.
func TrainEpoch(net *feedforward.FeedforwardNetwork, r datasets.Reader, rate float64) float64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += net.Train(r.At(i), rate)
	}
	return sum / float64(n)
}

// Evaluate returns the mean over nets of each network's mean error on r.
// The samples are sharded over threads. A nil or empty r evaluates to 0.
func Evaluate(ctx context.Context, nets []*feedforward.FeedforwardNetwork, r datasets.Reader, threads int) (float64, error) {
	if r == nil || r.Len() == 0 || len(nets) == 0 {
		return 0, nil
	}
	shards := parallel.Split(r.Len(), threads)
	var total atomic.Float64
	err := parallel.ForEach(ctx, len(nets)*len(shards), threads, func(_ context.Context, job int) error {
		net, shard := nets[job/len(shards)], shards[job%len(shards)]
		var sum float64
		for i := shard[0]; i < shard[1]; i++ {
			sum += net.Error(r.At(i))
		}
		total.Add(sum)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total.Load() / float64(r.Len()*len(nets)), nil
}
