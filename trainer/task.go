package trainer

import "io"

// Model is the weight container a task trains. The trainer never looks inside it;
// backends know the concrete type and pushers only persist it.
type Model interface {
	WriteCompressedWeights(w io.Writer) error
}

// ErrorRecord is the outcome of one training step of one task.
type ErrorRecord struct {
	Epoch        int     // epoch the step trained, before the increment
	Error        float64 // training error reported by the backend
	LearningRate float64 // rate the step used
}

// Entry is what a Peeker hands out: a model to train and the epoch it resumes at.
type Entry struct {
	Index      int
	Model      Model
	StartEpoch int
}

// Task is the lifecycle record of one training instance while it is admitted.
type Task struct {
	Index        int // assigned by the peeker, only used for correlation
	Model        Model
	StartEpoch   int
	CurrentEpoch int
	History      []ErrorRecord
}

func newTask(e Entry) *Task {
	return &Task{
		Index:        e.Index,
		Model:        e.Model,
		StartEpoch:   e.StartEpoch,
		CurrentEpoch: e.StartEpoch,
	}
}

// Last returns the most recent error record. ok is false before the first step.
func (t *Task) Last() (r ErrorRecord, ok bool) {
	if len(t.History) == 0 {
		return r, false
	}
	return t.History[len(t.History)-1], true
}

// Snapshot copies the task for pushers. The history is copied, the model is shared.
func (t *Task) Snapshot() *Task {
	s := *t
	s.History = append([]ErrorRecord(nil), t.History...)
	return &s
}

func (t *Task) record(err, rate float64) {
	t.History = append(t.History, ErrorRecord{
		Epoch:        t.CurrentEpoch,
		Error:        err,
		LearningRate: rate,
	})
	t.CurrentEpoch++
}
