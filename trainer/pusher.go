package trainer

import "context"

import "go.uber.org/atomic"
import "go.uber.org/zap"

// Pusher receives task snapshots: after every step for progress, once at the end for completion.
type Pusher interface {
	Push(ctx context.Context, t *Task)
}

// PusherFunc adapts a function to Pusher.
type PusherFunc func(ctx context.Context, t *Task)

// Push calls f.
func (f PusherFunc) Push(ctx context.Context, t *Task) {
	f(ctx, t)
}

// Pushers fans a snapshot out to every pusher in order.
type Pushers []Pusher

// Push pushes t to every non nil pusher.
func (p Pushers) Push(ctx context.Context, t *Task) {
	for _, pusher := range p {
		if pusher != nil {
			pusher.Push(ctx, t)
		}
	}
}

// LogPusher logs each snapshot it receives.
type LogPusher struct {
	Logger *zap.Logger
	Msg    string
}

// Push logs the index, epoch and latest error of t.
func (p LogPusher) Push(_ context.Context, t *Task) {
	fields := []zap.Field{zap.Int("index", t.Index), zap.Int("epoch", t.CurrentEpoch)}
	if r, ok := t.Last(); ok {
		fields = append(fields, zap.Float64("error", r.Error), zap.Float64("learning_rate", r.LearningRate))
	}
	p.Logger.Info(p.Msg, fields...)
}

// CountPusher counts the snapshots passing through it. Safe for concurrent use.
type CountPusher struct {
	n atomic.Int64
}

// Push counts t.
func (c *CountPusher) Push(context.Context, *Task) {
	c.n.Inc()
}

// Count returns the number of snapshots pushed so far.
func (c *CountPusher) Count() int64 {
	return c.n.Load()
}

type nopPusher struct{}

func (nopPusher) Push(context.Context, *Task) {}

func orNop(p Pusher) Pusher {
	if p == nil {
		return nopPusher{}
	}
	return p
}
