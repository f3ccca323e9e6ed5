package solver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/fictitiousplay/poker"
)

// TieBreak decides which action wins when several share the maximal expected
// value.
type TieBreak uint8

const (
	// TieBreakLowest picks the lowest-indexed action: the smallest bet, or
	// Fold over Call.
	TieBreakLowest TieBreak = iota
	// TieBreakRandom picks uniformly among the co-maximal actions using the
	// trainer's random source.
	TieBreakRandom
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakLowest:
		return "lowest"
	case TieBreakRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseTieBreak converts "lowest" or "random" to a TieBreak. The empty string
// selects the default.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lowest":
		return TieBreakLowest, nil
	case "random":
		return TieBreakRandom, nil
	default:
		return TieBreakLowest, fmt.Errorf("unknown tie break %q", s)
	}
}

// DefaultSmoothing is the count every cell of both stores starts at.
const DefaultSmoothing = 0.01

// Config aggregates the parameters of one fictitious-play run.
type Config struct {
	Strengths     int      `json:"strengths"`
	Ante          float64  `json:"ante"`
	Hands         int      `json:"hands"`
	Smoothing     float64  `json:"smoothing"`
	Seed          int64    `json:"seed"`           // 0 picks a time seed
	TraceWindow   int      `json:"trace_window"`   // trailing hands passed to the trace hook
	ProgressEvery int      `json:"progress_every"` // 0 => hands/100
	TieBreak      TieBreak `json:"tie_break"`
}

// DefaultConfig returns the ten-strength game with an ante of 2.
func DefaultConfig() Config {
	return Config{
		Strengths:   poker.DefaultStrengths,
		Ante:        poker.DefaultAnte,
		Hands:       50000,
		Smoothing:   DefaultSmoothing,
		Seed:        1,
		TraceWindow: 100,
		TieBreak:    TieBreakLowest,
	}
}

// Game returns the game described by the config.
func (c Config) Game() poker.Game {
	return poker.Game{Strengths: c.Strengths, Ante: c.Ante}
}

// Validate ensures the parameters are safe to use before any hand is played.
func (c Config) Validate() error {
	if err := c.Game().Validate(); err != nil {
		return err
	}
	if c.Hands <= 0 {
		return errors.New("hands must be > 0")
	}
	if c.Smoothing <= 0 {
		return errors.New("smoothing must be > 0")
	}
	if c.TraceWindow < 0 {
		return errors.New("trace window cannot be negative")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	if c.TieBreak > TieBreakRandom {
		return errors.New("invalid tie break")
	}
	return nil
}
