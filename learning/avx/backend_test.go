package avx

import (
	"context"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/neurlang/epochtrainer/datasets"
	"github.com/neurlang/epochtrainer/datasets/squareroot"
	"github.com/neurlang/epochtrainer/learning"
	"github.com/neurlang/epochtrainer/net/feedforward"
	"github.com/neurlang/epochtrainer/trainer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func network(seed int64) *feedforward.FeedforwardNetwork {
	var net feedforward.FeedforwardNetwork
	net.NewLayer(8, 1)
	net.NewLayer(1, 8)
	net.Randomize(seed)
	return &net
}

func TestDefaults(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultLanes(), 1)
	assert.GreaterOrEqual(t, DefaultThreads(), 1)
	assert.Equal(t, DefaultThreads()*DefaultLanes(), New(HyperParameters{}, nil).MaxConcurrentTasks())
	assert.Equal(t, 6, New(HyperParameters{Threads: 3, Lanes: 2}, nil).MaxConcurrentTasks())
}

func TestTrainBatchRejectsForeignModels(t *testing.T) {
	b := New(HyperParameters{Threads: 2}, nil)
	_, err := b.TrainBatch(context.Background(), trainer.Step{
		Tasks:  []*trainer.Task{{Index: 1}},
		Rates:  []float64{0.1},
		Reader: datasets.NewMemoryReader(nil, 0, false),
	})
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	data := squareroot.New(100)
	nets := []*feedforward.FeedforwardNetwork{network(1), network(2)}

	var want float64
	for _, net := range nets {
		var sum float64
		for _, s := range data {
			sum += net.Error(s)
		}
		want += sum / float64(len(data))
	}
	want /= float64(len(nets))

	got, err := Evaluate(context.Background(), nets, datasets.NewMemoryReader(data, 0, false), 3)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)

	got, err = Evaluate(context.Background(), nets, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestTrainingRun(t *testing.T) {
	Convey("Given three square root networks trained on the CPU backend", t, func() {
		train, test := squareroot.New(squareroot.Small).Shuffle(1).Split(32)
		b := New(HyperParameters{Threads: 2, Lanes: 1, HeldOut: datasets.NewMemoryReader(test, 0, false)}, nil)

		hp := learning.Default()
		hp.EpochCount = 12
		hp.LearningRate = 0.05
		tr, err := trainer.New(hp, b, trainer.Options{})
		So(err, ShouldBeNil)

		peeker := trainer.NewQueuePeeker()
		for i := 0; i < 3; i++ {
			peeker.Add(trainer.Entry{Index: i, Model: network(int64(i + 1))})
		}
		var done []*trainer.Task
		completion := trainer.PusherFunc(func(_ context.Context, task *trainer.Task) {
			done = append(done, task)
		})

		err = tr.Train(context.Background(), datasets.NewMemoryReader(train, 9, true), peeker, nil, completion)
		So(err, ShouldBeNil)

		Convey("every task completes its budget", func() {
			So(done, ShouldHaveLength, 3)
			for _, task := range done {
				So(task.CurrentEpoch, ShouldEqual, 12)
				So(task.History, ShouldHaveLength, 12)
			}
		})
		Convey("the training error goes down", func() {
			for _, task := range done {
				first, last := task.History[0].Error, task.History[11].Error
				So(last, ShouldBeLessThan, first)
				So(last, ShouldBeLessThan, 0.02)
			}
		})
		Convey("the held-out error is measured", func() {
			current, _ := tr.HeldOutError()
			So(math.IsNaN(current), ShouldBeFalse)
			So(current, ShouldBeGreaterThan, 0)
			So(current, ShouldBeLessThan, 0.02)
		})
	})
}
