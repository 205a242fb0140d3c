package trainer

import "context"

import "github.com/oleiade/lane/v2"

// Peeker is the source of tasks. Peek returns false once nothing is left to admit,
// which may be temporary; the trainer asks again before every step.
type Peeker interface {
	Peek(ctx context.Context) (Entry, bool)
}

// PeekerFunc adapts a function to Peeker.
type PeekerFunc func(ctx context.Context) (Entry, bool)

// Peek calls f.
func (f PeekerFunc) Peek(ctx context.Context) (Entry, bool) {
	return f(ctx)
}

// QueuePeeker hands out entries first in, first out. Safe for concurrent use,
// entries may be added while a run is in progress.
type QueuePeeker struct {
	q *lane.Queue[Entry]
}

// NewQueuePeeker returns a peeker holding entries.
func NewQueuePeeker(entries ...Entry) *QueuePeeker {
	return &QueuePeeker{q: lane.NewQueue[Entry](entries...)}
}

// Add enqueues e behind the entries already waiting.
func (p *QueuePeeker) Add(e Entry) {
	p.q.Enqueue(e)
}

// Peek dequeues the oldest entry.
func (p *QueuePeeker) Peek(context.Context) (Entry, bool) {
	return p.q.Dequeue()
}

// Len is the number of entries waiting.
func (p *QueuePeeker) Len() int {
	return int(p.q.Size())
}
