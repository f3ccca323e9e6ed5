// Package config loads run settings from an HCL file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/fictitiousplay/solver"
)

// File represents a complete configuration file.
type File struct {
	Game       *GameSettings       `hcl:"game,block"`
	Training   *TrainingSettings   `hcl:"training,block"`
	Checkpoint *CheckpointSettings `hcl:"checkpoint,block"`
	Ledger     *LedgerSettings     `hcl:"ledger,block"`
}

// GameSettings describes the game being solved.
type GameSettings struct {
	Strengths *int     `hcl:"strengths,optional"`
	Ante      *float64 `hcl:"ante,optional"`
}

// TrainingSettings controls the fictitious-play loop.
type TrainingSettings struct {
	Hands         *int     `hcl:"hands,optional"`
	Smoothing     *float64 `hcl:"smoothing,optional"`
	Seed          *int64   `hcl:"seed,optional"` // 0 picks a time seed; unset uses the default
	TraceWindow   *int     `hcl:"trace_window,optional"`
	ProgressEvery int      `hcl:"progress_every,optional"`
	TieBreak      string   `hcl:"tie_break,optional"`
}

// CheckpointSettings enables periodic checkpoints.
type CheckpointSettings struct {
	Path     string `hcl:"path"`
	Every    int    `hcl:"every,optional"`
	Interval string `hcl:"interval,optional"`
}

// LedgerSettings points at the run archive database.
type LedgerSettings struct {
	Path string `hcl:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *File {
	def := solver.DefaultConfig()
	return &File{
		Game: &GameSettings{
			Strengths: &def.Strengths,
			Ante:      &def.Ante,
		},
		Training: &TrainingSettings{
			Hands:       &def.Hands,
			Smoothing:   &def.Smoothing,
			Seed:        &def.Seed,
			TraceWindow: &def.TraceWindow,
			TieBreak:    def.TieBreak.String(),
		},
	}
}

// Load reads filename, falling back to Default when it does not exist.
// Values the file leaves unset take their defaults.
func Load(filename string) (*File, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg File
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

func (f *File) applyDefaults() {
	def := Default()
	if f.Game == nil {
		f.Game = def.Game
	}
	if f.Training == nil {
		f.Training = def.Training
	}
	if f.Game.Strengths == nil {
		f.Game.Strengths = def.Game.Strengths
	}
	if f.Game.Ante == nil {
		f.Game.Ante = def.Game.Ante
	}
	if f.Training.Hands == nil {
		f.Training.Hands = def.Training.Hands
	}
	if f.Training.Smoothing == nil {
		f.Training.Smoothing = def.Training.Smoothing
	}
	if f.Training.Seed == nil {
		f.Training.Seed = def.Training.Seed
	}
	if f.Training.TraceWindow == nil {
		f.Training.TraceWindow = def.Training.TraceWindow
	}
	if f.Training.TieBreak == "" {
		f.Training.TieBreak = def.Training.TieBreak
	}
}

// Validate checks the settings by building the solver configuration.
func (f *File) Validate() error {
	if _, err := f.SolverConfig(); err != nil {
		return err
	}
	if f.Checkpoint != nil {
		if f.Checkpoint.Path == "" {
			return fmt.Errorf("checkpoint: path is required")
		}
		if f.Checkpoint.Every < 0 {
			return fmt.Errorf("checkpoint: every cannot be negative")
		}
		if _, err := f.CheckpointInterval(); err != nil {
			return err
		}
	}
	if f.Ledger != nil && f.Ledger.Path == "" {
		return fmt.Errorf("ledger: path is required")
	}
	return nil
}

// SolverConfig converts the file into a validated solver configuration.
func (f *File) SolverConfig() (solver.Config, error) {
	if f.Game == nil || f.Training == nil {
		return solver.Config{}, fmt.Errorf("game and training settings are required")
	}
	tieBreak, err := solver.ParseTieBreak(f.Training.TieBreak)
	if err != nil {
		return solver.Config{}, err
	}
	cfg := solver.DefaultConfig()
	cfg.ProgressEvery = f.Training.ProgressEvery
	cfg.TieBreak = tieBreak
	if f.Game.Strengths != nil {
		cfg.Strengths = *f.Game.Strengths
	}
	if f.Game.Ante != nil {
		cfg.Ante = *f.Game.Ante
	}
	if f.Training.Hands != nil {
		cfg.Hands = *f.Training.Hands
	}
	if f.Training.Smoothing != nil {
		cfg.Smoothing = *f.Training.Smoothing
	}
	if f.Training.Seed != nil {
		cfg.Seed = *f.Training.Seed
	}
	if f.Training.TraceWindow != nil {
		cfg.TraceWindow = *f.Training.TraceWindow
	}
	if err := cfg.Validate(); err != nil {
		return solver.Config{}, err
	}
	return cfg, nil
}

// CheckpointInterval parses the checkpoint interval. It is zero when no
// checkpoint block or interval is set.
func (f *File) CheckpointInterval() (time.Duration, error) {
	if f.Checkpoint == nil || f.Checkpoint.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Checkpoint.Interval)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: invalid interval %q: %w", f.Checkpoint.Interval, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("checkpoint: interval cannot be negative")
	}
	return d, nil
}
