package solver

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/fictitiousplay/internal/randutil"
	"github.com/lox/fictitiousplay/internal/statistics"
)

// Result summarises one finished run.
type Result struct {
	Seed          int64
	Hands         int
	TotalPayoff   float64
	AveragePayoff float64
	Stats         statistics.Statistics
	Strategy      *Strategy
}

// Aggregate combines the results of several independent runs.
type Aggregate struct {
	Runs          int
	Stats         statistics.Statistics // all hands of all runs
	AveragePayoff float64

	// Spread is the largest pairwise Distance between the final strategies,
	// a rough measure of how far the runs are from agreeing. BetSpread only
	// compares player one's tables.
	Spread    float64
	BetSpread float64
}

// Result snapshots the trainer's current state.
func (t *Trainer) Result() (Result, error) {
	s, err := t.Strategy()
	if err != nil {
		return Result{}, err
	}
	return Result{
		Seed:          t.cfg.Seed,
		Hands:         t.hands,
		TotalPayoff:   t.stats.Sum,
		AveragePayoff: t.stats.Mean(),
		Stats:         t.stats,
		Strategy:      s,
	}, nil
}

// RunIndependent trains runs separate trainers concurrently. Each gets a
// private count store and a random stream derived from cfg.Seed and its
// index, so results are reproducible and in index order. The first error
// cancels the remaining runs.
func RunIndependent(ctx context.Context, cfg Config, runs int, opts ...Option) ([]Result, Aggregate, error) {
	if runs <= 0 {
		return nil, Aggregate{}, errors.New("runs must be > 0")
	}
	if err := cfg.Validate(); err != nil {
		return nil, Aggregate{}, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = randutil.TimeSeed()
	}

	results := make([]Result, runs)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < runs; i++ {
		g.Go(func() error {
			runCfg := cfg
			runCfg.Seed = randutil.Derive(cfg.Seed, i)
			runCfg.TraceWindow = 0

			t, err := NewTrainer(runCfg, opts...)
			if err != nil {
				return err
			}
			if err := t.Run(gctx, nil); err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res, err := t.Result()
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Aggregate{}, err
	}

	agg, err := Combine(results)
	if err != nil {
		return nil, Aggregate{}, err
	}
	return results, agg, nil
}

// Combine merges run statistics and measures strategy spread.
func Combine(results []Result) (Aggregate, error) {
	agg := Aggregate{Runs: len(results)}
	for i, r := range results {
		agg.Stats.Merge(r.Stats)
		for j := i + 1; j < len(results); j++ {
			if r.Strategy == nil || results[j].Strategy == nil {
				continue
			}
			d, err := r.Strategy.Distance(results[j].Strategy)
			if err != nil {
				return Aggregate{}, err
			}
			bd, err := r.Strategy.BetDistance(results[j].Strategy)
			if err != nil {
				return Aggregate{}, err
			}
			agg.Spread = max(agg.Spread, d)
			agg.BetSpread = max(agg.BetSpread, bd)
		}
	}
	agg.AveragePayoff = agg.Stats.Mean()
	return agg, nil
}
