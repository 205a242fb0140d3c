// Package config loads the YAML file describing a training run.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/epochtrainer/learning"
)

// Config is the whole run configuration. Zero sections take the defaults of Default.
type Config struct {
	Learning learning.HyperParameters `yaml:"learning"`
	Backend  Backend                  `yaml:"backend"`
	Data     Data                     `yaml:"data"`
	Run      Run                      `yaml:"run"`
	Log      Log                      `yaml:"log"`
}

// Backend selects the numeric backend and its size.
type Backend struct {
	Name         string `yaml:"name"`           // "avx" or "cu"
	Threads      int    `yaml:"threads"`        // 0 picks the physical core count
	Lanes        int    `yaml:"lanes"`          // 0 picks the SIMD width
	MaxBatchSize int    `yaml:"max_batch_size"` // 0 means the backend decides

	CuMemoryBytes   uint64 `yaml:"cu_memory_bytes"`
	CuMemoryPortion uint16 `yaml:"cu_memory_portion"`
	CuTaskBytes     uint64 `yaml:"cu_task_bytes"`
}

// Data describes the training set.
type Data struct {
	Size    int   `yaml:"size"`     // number of samples generated
	HeldOut int   `yaml:"held_out"` // samples kept aside for held-out evaluation
	Seed    int64 `yaml:"seed"`
	Shuffle bool  `yaml:"shuffle"` // reshuffle every epoch
}

// Run describes the set of trained instances and where their state goes.
type Run struct {
	AnnCount    int    `yaml:"ann_count"`
	SnapshotDir string `yaml:"snapshot_dir"`
	Ledger      string `yaml:"ledger"` // sqlite path, empty disables the ledger
	Hidden      int    `yaml:"hidden"` // hidden layer width
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration of a small square root run.
func Default() Config {
	return Config{
		Learning: learning.Default(),
		Backend:  Backend{Name: "avx"},
		Data:     Data{Size: 1 << 8, HeldOut: 32, Seed: 1, Shuffle: true},
		Run:      Run{AnnCount: 1, SnapshotDir: "ann_snapshots", Hidden: 8},
		Log:      Log{Level: "info"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config file")
	}
	if err := Parse(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates the result.
func Parse(b []byte, cfg *Config) error {
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return errors.Wrap(err, "parse config file")
	}
	cfg.Backend.Name = strings.ToLower(strings.TrimSpace(cfg.Backend.Name))
	return cfg.Validate()
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if err := c.Learning.Validate(); err != nil {
		return errors.Wrap(err, "learning")
	}
	switch c.Backend.Name {
	case "avx", "cu":
	default:
		return errors.Errorf("backend: unknown name %q", c.Backend.Name)
	}
	if c.Backend.Threads < 0 || c.Backend.Lanes < 0 || c.Backend.MaxBatchSize < 0 {
		return errors.New("backend: threads, lanes and max batch size must not be negative")
	}
	if c.Data.Size < 1 {
		return errors.Errorf("data: size must be positive, got %d", c.Data.Size)
	}
	if c.Data.HeldOut < 0 || c.Data.HeldOut >= c.Data.Size {
		return errors.Errorf("data: held out %d must be in [0, %d)", c.Data.HeldOut, c.Data.Size)
	}
	if c.Run.AnnCount < 0 {
		return errors.Errorf("run: negative ann count %d", c.Run.AnnCount)
	}
	if c.Run.Hidden < 1 {
		return errors.Errorf("run: hidden layer width must be positive, got %d", c.Run.Hidden)
	}
	return nil
}
