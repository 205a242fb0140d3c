package trainer

import "context"
import "fmt"
import "os"
import "path/filepath"

import "github.com/pkg/errors"
import "go.uber.org/zap"

import "github.com/neurlang/epochtrainer/learning"
import "github.com/neurlang/epochtrainer/log"

// CheckpointName is the file a task in progress is saved to after finishing epoch-1.
func CheckpointName(index, epoch int) string {
	return fmt.Sprintf("ann_%06d.e%04d.json.t.lzw", index, epoch)
}

// TrainedName is the file a completed task is saved to.
func TrainedName(index int) string {
	return fmt.Sprintf("ann_trained_%06d.json.t.lzw", index)
}

// SnapshotPusher writes task models into Dir. As a progress pusher it keeps one
// checkpoint per task, replacing the one of the previous epoch; as a completion
// pusher (Trained set) it writes the trained snapshot and drops the checkpoint.
// Snapshots of diverged tasks are never written, so the previous checkpoint stays.
// Write failures are logged, they never stop training.
type SnapshotPusher struct {
	Dir     string
	Trained bool
	Logger  *zap.Logger
}

// Push saves the model of t.
func (p SnapshotPusher) Push(_ context.Context, t *Task) {
	logger := log.Or(p.Logger)
	if t.Model == nil {
		logger.Warn("task without model, nothing to save", zap.Int("index", t.Index))
		return
	}
	if last, ok := t.Last(); ok && learning.IsBroken(last.Error) {
		// keep the last sound checkpoint for resuming
		logger.Warn("broken weights, snapshot not saved", zap.Int("index", t.Index),
			zap.Int("epoch", t.CurrentEpoch), zap.Float64("error", last.Error))
		return
	}
	name := CheckpointName(t.Index, t.CurrentEpoch)
	if p.Trained {
		name = TrainedName(t.Index)
	}
	if err := p.write(filepath.Join(p.Dir, name), t.Model); err != nil {
		logger.Error("failed to save snapshot", zap.Int("index", t.Index), zap.Error(err))
		return
	}

	// the checkpoint this one supersedes
	stale := CheckpointName(t.Index, t.CurrentEpoch-1)
	if p.Trained {
		stale = CheckpointName(t.Index, t.CurrentEpoch)
	}
	if err := os.Remove(filepath.Join(p.Dir, stale)); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove stale checkpoint", zap.String("file", stale), zap.Error(err))
	}
}

// write goes through a temporary file so a crash never leaves a truncated snapshot.
func (p SnapshotPusher) write(name string, m Model) error {
	tmp := name + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = m.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", tmp)
	}
	return os.Rename(tmp, name)
}
