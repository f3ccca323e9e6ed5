package solver

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/fictitiousplay/internal/fileutil"
	"github.com/lox/fictitiousplay/internal/statistics"
)

const checkpointFileVersion = 1

type checkpointSnapshot struct {
	Version  int                   `json:"version"`
	SavedAt  time.Time             `json:"saved_at"`
	Hands    int                   `json:"hands"`
	Config   Config                `json:"config"`
	RNGState []byte                `json:"rng_state"`
	Counts   countsSnapshot        `json:"counts"`
	Stats    statistics.Statistics `json:"stats"`
}

// EnableCheckpoints makes Run write a checkpoint to path every n hands, every
// interval of clock time, and once more when the run completes. Either
// trigger may be zero to disable it.
func (t *Trainer) EnableCheckpoints(path string, every int, interval time.Duration) {
	t.checkpointPath = path
	t.checkpointEvery = every
	t.checkpointInterval = interval
}

// SaveCheckpoint writes the trainer state to path atomically.
func (t *Trainer) SaveCheckpoint(path string) error {
	if path == "" {
		return errors.New("checkpoint path is required")
	}
	rngState, err := t.src.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode rng state: %w", err)
	}

	now := t.clock.Now()
	snap := checkpointSnapshot{
		Version:  checkpointFileVersion,
		SavedAt:  now.UTC(),
		Hands:    t.hands,
		Config:   t.cfg,
		RNGState: rngState,
		Counts:   t.counts.snapshot(),
		Stats:    t.stats,
	}
	if err := fileutil.WriteJSONAtomic(path, snap, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	t.lastCheckpoint = now
	t.logger.Debug("checkpoint saved", "path", path, "hands", t.hands)
	return nil
}

// LoadTrainerFromCheckpoint restores a trainer so that continuing it plays
// exactly the hands an uninterrupted run would have played.
func LoadTrainerFromCheckpoint(path string, opts ...Option) (*Trainer, error) {
	var snap checkpointSnapshot
	if err := fileutil.ReadJSON(path, &snap); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if snap.Version != checkpointFileVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", snap.Version)
	}
	if err := snap.Config.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint config invalid: %w", err)
	}
	if snap.Config.Seed == 0 {
		return nil, errors.New("checkpoint config has no seed")
	}
	if snap.Hands < 0 || snap.Hands > snap.Config.Hands {
		return nil, fmt.Errorf("checkpoint hands %d outside [0, %d]", snap.Hands, snap.Config.Hands)
	}
	if snap.Counts.Strengths != snap.Config.Strengths || snap.Counts.Smoothing != snap.Config.Smoothing {
		return nil, errors.New("checkpoint counts do not match config")
	}
	if err := snap.Stats.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint stats invalid: %w", err)
	}
	if snap.Stats.Hands != snap.Hands {
		return nil, fmt.Errorf("checkpoint stats cover %d hands, want %d", snap.Stats.Hands, snap.Hands)
	}

	t, err := NewTrainer(snap.Config, opts...)
	if err != nil {
		return nil, err
	}
	counts, err := restoreCounts(snap.Counts)
	if err != nil {
		return nil, err
	}
	if err := t.src.UnmarshalBinary(snap.RNGState); err != nil {
		return nil, fmt.Errorf("decode rng state: %w", err)
	}
	t.counts = counts
	t.stats = snap.Stats
	t.hands = snap.Hands
	return t, nil
}
