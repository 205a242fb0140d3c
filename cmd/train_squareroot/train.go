package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurlang/epochtrainer/config"
	"github.com/neurlang/epochtrainer/datasets"
	"github.com/neurlang/epochtrainer/datasets/squareroot"
	"github.com/neurlang/epochtrainer/learning/avx"
	"github.com/neurlang/epochtrainer/learning/cu"
	"github.com/neurlang/epochtrainer/log"
	"github.com/neurlang/epochtrainer/net/feedforward"
	"github.com/neurlang/epochtrainer/store"
	"github.com/neurlang/epochtrainer/trainer"
)

type trainFlags struct {
	config      string
	annCount    int
	resume      bool
	backend     string
	snapshotDir string
	ledger      string
	logLevel    string
}

func newTrainCmd() *cobra.Command {
	var f trainFlags
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train ann_count square root networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			logger, err := log.New(cfg.Log.Level, cfg.Log.JSON)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return train(cmd.Context(), cfg, f.resume, logger)
		},
	}
	cmd.Flags().StringVar(&f.config, "config", "", "YAML configuration file")
	cmd.Flags().IntVar(&f.annCount, "ann-count", 0, "number of networks to train, overrides the config")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "continue from the snapshots and the ledger")
	cmd.Flags().StringVar(&f.backend, "backend", "", "backend (avx, cu), overrides the config")
	cmd.Flags().StringVar(&f.snapshotDir, "snapshot-dir", "", "snapshot folder, overrides the config")
	cmd.Flags().StringVar(&f.ledger, "ledger", "", "sqlite ledger path, overrides the config")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

// load reads the configuration file and applies the flags that were set.
func (f *trainFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("ann-count") {
		cfg.Run.AnnCount = f.annCount
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend.Name = f.backend
	}
	if cmd.Flags().Changed("snapshot-dir") {
		cfg.Run.SnapshotDir = f.snapshotDir
	}
	if cmd.Flags().Changed("ledger") {
		cfg.Run.Ledger = f.ledger
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func train(ctx context.Context, cfg config.Config, resume bool, logger *zap.Logger) error {
	data := squareroot.New(cfg.Data.Size).Shuffle(cfg.Data.Seed)
	trainSet, heldOut := data.Split(cfg.Data.HeldOut)

	backend, err := newBackend(cfg.Backend, datasets.NewMemoryReader(heldOut, 0, false), logger)
	if err != nil {
		return err
	}
	tr, err := trainer.New(cfg.Learning, backend, trainer.Options{
		Logger:       logger,
		MaxBatchSize: cfg.Backend.MaxBatchSize,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Run.SnapshotDir, 0o755); err != nil {
		return errors.Wrap(err, "create snapshot folder")
	}
	progress := trainer.Pushers{trainer.SnapshotPusher{Dir: cfg.Run.SnapshotDir, Logger: logger}}
	completion := trainer.Pushers{
		trainer.SnapshotPusher{Dir: cfg.Run.SnapshotDir, Trained: true, Logger: logger},
		trainer.LogPusher{Logger: logger, Msg: "network trained"},
	}

	completed := make(map[int]bool)
	if cfg.Run.Ledger != "" {
		st, err := store.NewSQLiteStore(cfg.Run.Ledger, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if resume {
			if completed, err = st.Completed(ctx); err != nil {
				return errors.Wrap(err, "read completed instances")
			}
		}
		run, err := st.NewRun(ctx, cfg.Learning)
		if err != nil {
			return err
		}
		logger.Info("run recorded", zap.String("run", run.ID), zap.String("ledger", cfg.Run.Ledger))
		progress = append(progress, st.ProgressPusher(run))
		completion = append(completion, st.CompletionPusher(run))
	}

	peeker, err := newPeeker(cfg, resume, completed, logger)
	if err != nil {
		return err
	}
	logger.Info("instances queued", zap.Int("count", peeker.Len()), zap.Int("ann_count", cfg.Run.AnnCount))

	reader := datasets.NewMemoryReader(trainSet, cfg.Data.Seed, cfg.Data.Shuffle)
	return tr.Train(ctx, reader, peeker, progress, completion)
}

func newBackend(cfg config.Backend, heldOut datasets.Reader, logger *zap.Logger) (trainer.Backend, error) {
	h := avx.HyperParameters{
		Threads: cfg.Threads,
		Lanes:   cfg.Lanes,
		HeldOut: heldOut,
	}
	switch cfg.Name {
	case "cu":
		return cu.New(cu.HyperParameters{
			HyperParameters: h,
			CuMemoryBytes:   cfg.CuMemoryBytes,
			CuMemoryPortion: cfg.CuMemoryPortion,
			CuTaskBytes:     cfg.CuTaskBytes,
		}, logger)
	case "avx":
		return avx.New(h, logger), nil
	}
	return nil, errors.Errorf("unknown backend %q", cfg.Name)
}

// newPeeker queues resumed checkpoints first, then fresh networks for the
// indexes that have neither a checkpoint nor a completion.
func newPeeker(cfg config.Config, resume bool, completed map[int]bool, logger *zap.Logger) (*trainer.QueuePeeker, error) {
	peeker := trainer.NewQueuePeeker()
	started := make(map[int]bool)
	if resume {
		entries, trained, err := trainer.Resume(cfg.Run.SnapshotDir, loadNetwork)
		if err != nil {
			return nil, err
		}
		for index := range trained {
			completed[index] = true
		}
		for _, e := range entries {
			started[e.Index] = true
			if completed[e.Index] {
				continue
			}
			logger.Info("resuming network", zap.Int("index", e.Index), zap.Int("epoch", e.StartEpoch))
			peeker.Add(e)
		}
	}
	for i := 0; i < cfg.Run.AnnCount; i++ {
		if started[i] || completed[i] {
			continue
		}
		peeker.Add(trainer.Entry{Index: i, Model: newNetwork(cfg.Run.Hidden, cfg.Data.Seed+int64(i))})
	}
	return peeker, nil
}

func newNetwork(hidden int, seed int64) *feedforward.FeedforwardNetwork {
	var net feedforward.FeedforwardNetwork
	net.NewLayer(hidden, 1)
	net.NewLayer(1, hidden)
	net.Randomize(seed)
	return &net
}

func loadNetwork(path string) (trainer.Model, error) {
	var net feedforward.FeedforwardNetwork
	if err := net.ReadCompressedWeightsFromFile(path); err != nil {
		return nil, err
	}
	return &net, nil
}
