package trainer

import "context"
import "math"

import "github.com/pkg/errors"
import "go.uber.org/atomic"
import "go.uber.org/zap"

import "github.com/neurlang/epochtrainer/datasets"
import "github.com/neurlang/epochtrainer/learning"
import "github.com/neurlang/epochtrainer/log"

// Options tune a Trainer beyond its hyperparameters.
type Options struct {
	Logger *zap.Logger // nil discards logs

	// MaxBatchSize caps the batch below what the backend reports. 0 means no cap.
	MaxBatchSize int
}

// Trainer schedules tasks onto a Backend. The hyperparameters are fixed at construction.
// A Trainer runs one Train at a time.
type Trainer struct {
	hp      learning.HyperParameters
	backend Backend
	opts    Options
	logger  *zap.Logger

	heldOut, previousHeldOut atomic.Float64
}

// New validates hp and returns a trainer using backend b.
func New(hp learning.HyperParameters, b Backend, opts Options) (*Trainer, error) {
	if err := hp.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid hyperparameters")
	}
	if b == nil {
		return nil, errors.New("backend is required")
	}
	if opts.MaxBatchSize < 0 {
		return nil, errors.Errorf("max batch size must not be negative, got %d", opts.MaxBatchSize)
	}
	t := &Trainer{
		hp:      hp,
		backend: b,
		opts:    opts,
		logger:  log.Or(opts.Logger),
	}
	t.heldOut.Store(math.MaxFloat64)
	t.previousHeldOut.Store(math.MaxFloat64)
	return t, nil
}

// HyperParameters returns the configuration the trainer was built with.
func (t *Trainer) HyperParameters() learning.HyperParameters {
	return t.hp
}

// HeldOutError returns the held-out error of the latest step and of the step before it.
// A step that has not happened yet reports math.MaxFloat64.
func (t *Trainer) HeldOutError() (current, previous float64) {
	return t.heldOut.Load(), t.previousHeldOut.Load()
}

// run is the state of a single Train call.
type run struct {
	*Trainer
	reader     datasets.Reader
	peeker     Peeker
	progress   Pusher
	completion Pusher

	maxBatchSize int
	readerEpoch  int
	batch        []*Task
	adaptive     *learning.Adaptive
}

// Train admits tasks from peeker and trains them on reader until the batch is empty
// and the peeker has nothing left. Every task in the batch is pushed to progress after
// each step. Tasks reaching the epoch budget are pushed to completion and leave the
// batch; diverged tasks leave the batch without being pushed anywhere.
//
// The only errors are a backend unable to hold a single task, which is a *StartupError,
// and a failing backend step.
func (t *Trainer) Train(ctx context.Context, reader datasets.Reader, peeker Peeker, progress, completion Pusher) error {
	r := &run{
		Trainer:    t,
		reader:     reader,
		peeker:     peeker,
		progress:   orNop(progress),
		completion: orNop(completion),
		adaptive:   learning.NewAdaptive(t.hp),
	}

	concurrency := t.backend.MaxConcurrentTasks()
	r.maxBatchSize = concurrency
	if t.opts.MaxBatchSize > 0 && t.opts.MaxBatchSize < r.maxBatchSize {
		r.maxBatchSize = t.opts.MaxBatchSize
	}
	if r.maxBatchSize < 1 {
		return &StartupError{
			MaxConcurrentTasks: concurrency,
			MaxBatchSize:       t.opts.MaxBatchSize,
		}
	}
	t.heldOut.Store(math.MaxFloat64)
	t.previousHeldOut.Store(math.MaxFloat64)
	t.logger.Info("training started", zap.Int("max_batch_size", r.maxBatchSize), zap.Int("epoch_count", t.hp.EpochCount))

	for {
		r.admit(ctx)

		if len(r.batch) == 0 {
			t.logger.Info("training finished", zap.Int("reader_epoch", r.readerEpoch))
			return nil
		}

		if err := r.step(ctx); err != nil {
			return err
		}

		for _, task := range r.batch {
			r.progress.Push(ctx, task.Snapshot())
		}

		r.evict(ctx)

		r.reader.NextEpoch()
		r.readerEpoch++
	}
}

// admit fills the batch from the peeker, scrolling the reader forward to the
// start epoch of each admitted task.
func (r *run) admit(ctx context.Context) {
	for len(r.batch) < r.maxBatchSize {
		entry, ok := r.peeker.Peek(ctx)
		if !ok {
			return
		}
		if entry.StartEpoch < 0 {
			r.logger.Warn("task with negative initial epoch, starting it at 0",
				zap.Int("index", entry.Index), zap.Int("initial_epoch", entry.StartEpoch))
			entry.StartEpoch = 0
		}

		task := newTask(entry)
		if r.hp.IsLastEpoch(task.CurrentEpoch) {
			r.logger.Warn("task is allocated which is already complete",
				zap.Int("index", task.Index), zap.Int("initial_epoch", task.StartEpoch))
			continue
		}

		r.batch = append(r.batch, task)

		switch {
		case task.StartEpoch > r.readerEpoch:
			if len(r.batch) > 1 {
				r.logger.Warn("scrolling through reader requested (and done) while batch is not empty",
					zap.Int("index", task.Index), zap.Int("initial_epoch", task.StartEpoch),
					zap.Int("reader_epoch", r.readerEpoch))
			}
			for ; r.readerEpoch < task.StartEpoch; r.readerEpoch++ {
				r.reader.NextEpoch()
			}
		case task.StartEpoch < r.readerEpoch:
			// No rewinding: the task trains on the data of the current reader epoch.
			r.logger.Warn("negative scrolling through reader requested",
				zap.Int("index", task.Index), zap.Int("initial_epoch", task.StartEpoch),
				zap.Int("reader_epoch", r.readerEpoch))
		}
	}
}

// step trains the whole batch for one epoch and records the outcome on each task.
func (r *run) step(ctx context.Context) error {
	rates := make([]float64, len(r.batch))
	for i, task := range r.batch {
		rates[i] = r.hp.Rate(task.CurrentEpoch) * r.adaptive.Factor()
	}

	res, err := r.backend.TrainBatch(ctx, Step{
		Tasks:  r.batch,
		Rates:  rates,
		Reader: r.reader,
	})
	if err != nil {
		return errors.Wrapf(err, "train step at reader epoch %d", r.readerEpoch)
	}
	if len(res.Errors) != len(r.batch) {
		return errors.Errorf("backend returned %d errors for a batch of %d", len(res.Errors), len(r.batch))
	}

	for i, task := range r.batch {
		task.record(res.Errors[i], rates[i])
		r.logger.Debug("task trained", zap.Int("index", task.Index), zap.Int("epoch", task.CurrentEpoch),
			zap.Float64("error", res.Errors[i]), zap.Float64("learning_rate", rates[i]))
	}

	r.previousHeldOut.Store(r.heldOut.Load())
	r.heldOut.Store(res.HeldOutError)
	if r.adaptive.Observe(res.HeldOutError) {
		r.logger.Info("held-out error increased, decaying learning rate",
			zap.Float64("held_out_error", res.HeldOutError), zap.Float64("factor", r.adaptive.Factor()))
	}
	r.logger.Info("epoch trained", zap.Int("reader_epoch", r.readerEpoch), zap.Int("batch", len(r.batch)),
		zap.Float64("held_out_error", res.HeldOutError))
	return nil
}

// evict drops diverged tasks and pushes finished ones, keeping the rest in order.
func (r *run) evict(ctx context.Context) {
	kept := make([]*Task, 0, len(r.batch))
	for _, task := range r.batch {
		last, _ := task.Last()
		if learning.IsBroken(last.Error) {
			r.logger.Warn("broken weights while training, discarding task",
				zap.Int("index", task.Index), zap.Float64("error", last.Error))
			continue
		}
		if r.hp.IsLastEpoch(task.CurrentEpoch) {
			r.completion.Push(ctx, task.Snapshot())
			continue
		}
		kept = append(kept, task)
	}
	r.batch = kept
}
