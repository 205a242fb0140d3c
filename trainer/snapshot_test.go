package trainer

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neurlang/epochtrainer/net/feedforward"
)

func smallNet(seed int64) *feedforward.FeedforwardNetwork {
	var net feedforward.FeedforwardNetwork
	net.NewLayer(2, 1)
	net.NewLayer(1, 2)
	net.Randomize(seed)
	return &net
}

func loadNet(path string) (Model, error) {
	var net feedforward.FeedforwardNetwork
	if err := net.ReadCompressedWeightsFromFile(path); err != nil {
		return nil, err
	}
	return &net, nil
}

func TestSnapshotPusherKeepsOneCheckpoint(t *testing.T) {
	dir := t.TempDir()
	progress := SnapshotPusher{Dir: dir}
	completion := SnapshotPusher{Dir: dir, Trained: true}
	task := &Task{Index: 3, Model: smallNet(1)}
	ctx := context.Background()

	task.CurrentEpoch = 1
	progress.Push(ctx, task)
	task.CurrentEpoch = 2
	progress.Push(ctx, task)

	assert.NoFileExists(t, filepath.Join(dir, CheckpointName(3, 1)))
	assert.FileExists(t, filepath.Join(dir, CheckpointName(3, 2)))

	completion.Push(ctx, task)
	assert.NoFileExists(t, filepath.Join(dir, CheckpointName(3, 2)))
	assert.FileExists(t, filepath.Join(dir, TrainedName(3)))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSnapshotPusherLogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := SnapshotPusher{Dir: filepath.Join(t.TempDir(), "missing"), Logger: zap.New(core)}

	p.Push(context.Background(), &Task{Index: 1, Model: smallNet(1), CurrentEpoch: 1})
	p.Push(context.Background(), &Task{Index: 2})

	assert.Equal(t, 1, logs.FilterMessage("failed to save snapshot").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("nothing to save").Len())
}

func TestResume(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	progress := SnapshotPusher{Dir: dir}

	// task 0 checkpointed at epoch 4, task 5 at epoch 2, task 9 trained
	progress.Push(ctx, &Task{Index: 5, Model: smallNet(5), CurrentEpoch: 2})
	progress.Push(ctx, &Task{Index: 0, Model: smallNet(0), CurrentEpoch: 4})
	progress.Push(ctx, &Task{Index: 9, Model: smallNet(9), CurrentEpoch: 7})
	SnapshotPusher{Dir: dir, Trained: true}.Push(ctx, &Task{Index: 9, Model: smallNet(9), CurrentEpoch: 8})
	// an older stray checkpoint of task 0 loses against the newer one
	require.NoError(t, smallNet(0).WriteCompressedWeightsToFile(filepath.Join(dir, CheckpointName(0, 1))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	entries, trained, err := Resume(dir, loadNet)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, 4, entries[0].StartEpoch)
	assert.Equal(t, 5, entries[1].Index)
	assert.Equal(t, 2, entries[1].StartEpoch)
	assert.NotNil(t, entries[1].Model)
	assert.Equal(t, map[int]bool{9: true}, trained)
}

func TestResumeBadCheckpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CheckpointName(1, 1)), []byte("garbage"), 0o644))

	_, _, err := Resume(dir, loadNet)
	assert.Error(t, err)

	_, _, err = Resume(filepath.Join(dir, "missing"), loadNet)
	assert.Error(t, err)
}

func TestPushers(t *testing.T) {
	var a, b CountPusher
	core, logs := observer.New(zapcore.InfoLevel)
	p := Pushers{&a, nil, &b, LogPusher{Logger: zap.New(core), Msg: "progress"}}

	task := &Task{Index: 2}
	p.Push(context.Background(), task)
	task.record(0.25, 0.01)
	p.Push(context.Background(), task)

	assert.Equal(t, int64(2), a.Count())
	assert.Equal(t, int64(2), b.Count())
	entries := logs.FilterMessage("progress").AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, 0.25, entries[1].ContextMap()["error"])
	assert.Equal(t, int64(1), entries[1].ContextMap()["epoch"])
}

func TestDivergedTaskKeepsLastSoundCheckpoint(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.WarnLevel)
	b := &scriptedBackend{max: 1, errs: map[int][]float64{0: {0.2, math.NaN()}}}
	tr := newTrainer(t, hyper(5), b, Options{})

	progress := SnapshotPusher{Dir: dir, Logger: zap.New(core)}
	completion := SnapshotPusher{Dir: dir, Trained: true, Logger: zap.New(core)}
	require.NoError(t, tr.Train(context.Background(), &epochReader{}, NewQueuePeeker(Entry{Model: smallNet(1)}), progress, completion))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, CheckpointName(0, 1), files[0].Name())
	assert.Equal(t, 1, logs.FilterMessage("broken weights, snapshot not saved").Len())

	entries, trained, err := Resume(dir, loadNet)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Index)
	assert.Equal(t, 1, entries[0].StartEpoch)
	assert.Empty(t, trained)
}
