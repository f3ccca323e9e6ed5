package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/log"

	"github.com/lox/fictitiousplay/cmd/fpsolver/shared"
	"github.com/lox/fictitiousplay/internal/config"
	"github.com/lox/fictitiousplay/internal/ledger"
	"github.com/lox/fictitiousplay/internal/report"
	"github.com/lox/fictitiousplay/solver"
)

// Overrides are solver settings that flags may set on top of the config file.
type Overrides struct {
	Hands       *int     `help:"Hands to play"`
	Strengths   *int     `short:"k" help:"Number of hand strengths and bet sizes"`
	Ante        *float64 `help:"Ante paid by each player"`
	Smoothing   *float64 `help:"Initial value of every count"`
	Seed        *int64   `help:"RNG seed (0 for a time seed)"`
	TieBreak    string   `help:"Tie break between equally good actions (lowest|random)"`
	TraceWindow *int     `help:"Number of trailing hands to trace"`
}

func (o Overrides) apply(cfg *solver.Config) error {
	if o.Hands != nil {
		cfg.Hands = *o.Hands
	}
	if o.Strengths != nil {
		cfg.Strengths = *o.Strengths
	}
	if o.Ante != nil {
		cfg.Ante = *o.Ante
	}
	if o.Smoothing != nil {
		cfg.Smoothing = *o.Smoothing
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if o.TieBreak != "" {
		tb, err := solver.ParseTieBreak(o.TieBreak)
		if err != nil {
			return err
		}
		cfg.TieBreak = tb
	}
	if o.TraceWindow != nil {
		cfg.TraceWindow = *o.TraceWindow
	}
	return cfg.Validate()
}

// fixedByCheckpoint lists the flags that a resumed run cannot change: the
// game, the seed and the tie break come from the checkpoint.
func (o Overrides) fixedByCheckpoint() []string {
	var set []string
	if o.Strengths != nil {
		set = append(set, "--strengths")
	}
	if o.Ante != nil {
		set = append(set, "--ante")
	}
	if o.Smoothing != nil {
		set = append(set, "--smoothing")
	}
	if o.Seed != nil {
		set = append(set, "--seed")
	}
	if o.TieBreak != "" {
		set = append(set, "--tie-break")
	}
	if o.TraceWindow != nil {
		set = append(set, "--trace-window")
	}
	return set
}

// loadSolverConfig reads the config file and applies flag overrides.
func loadSolverConfig(path string, o Overrides) (*config.File, solver.Config, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, solver.Config{}, err
	}
	cfg, err := file.SolverConfig()
	if err != nil {
		return nil, solver.Config{}, err
	}
	if err := o.apply(&cfg); err != nil {
		return nil, solver.Config{}, err
	}
	return file, cfg, nil
}

type TrainCmd struct {
	Config string `short:"c" default:"fpsolver.hcl" type:"path" help:"HCL configuration file (defaults apply when missing)"`
	Overrides

	Out             string        `short:"o" type:"path" help:"Write the final strategy JSON to this file"`
	Checkpoint      string        `type:"path" help:"Checkpoint file (overrides config)"`
	CheckpointEvery int           `help:"Checkpoint every N hands (overrides config)"`
	CheckpointAfter time.Duration `help:"Checkpoint after this much time (overrides config)"`
	Resume          string        `type:"existingfile" help:"Resume from a checkpoint"`
	Ledger          string        `type:"path" help:"Archive the finished run in this SQLite database (overrides config)"`
	Trace           bool          `help:"Print the traced hands at the end of the run"`
	NoTables        bool          `help:"Skip the strategy tables"`
	NoProgress      bool          `help:"Disable the progress bar"`
}

func (c *TrainCmd) Run(g *Globals) error {
	logger := shared.SetupLogger(g.Debug, g.LogFormat)
	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	file, cfg, err := loadSolverConfig(c.Config, c.Overrides)
	if err != nil {
		return err
	}

	var traced []solver.HandRecord
	opts := []solver.Option{
		solver.WithLogger(logger),
		solver.WithTrace(func(rec solver.HandRecord) {
			if c.Trace {
				traced = append(traced, rec)
			}
		}),
	}

	trainer, err := c.newTrainer(cfg, opts)
	if err != nil {
		return err
	}
	cfg = trainer.Config()

	checkpointPath, every, interval, err := c.checkpointSettings(file)
	if err != nil {
		return err
	}
	if checkpointPath != "" {
		trainer.EnableCheckpoints(checkpointPath, every, interval)
	}

	logger.Info("Training",
		"hands", cfg.Hands,
		"strengths", cfg.Strengths,
		"ante", cfg.Ante,
		"seed", cfg.Seed,
		"tie_break", cfg.TieBreak)

	started := time.Now()
	err = trainer.Run(ctx, c.progressFunc())
	if !c.NoProgress {
		fmt.Fprintln(os.Stderr)
	}
	if errors.Is(err, context.Canceled) && checkpointPath != "" {
		if saveErr := trainer.SaveCheckpoint(checkpointPath); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		logger.Info("Interrupted, checkpoint written", "path", checkpointPath, "hands", trainer.Hands())
	}
	if err != nil {
		return err
	}
	finished := time.Now()

	res, err := trainer.Result()
	if err != nil {
		return err
	}

	out := report.New(os.Stdout)
	fmt.Println(out.Summary(res))
	if !c.NoTables {
		fmt.Println(out.BetTable(res.Strategy))
		fmt.Println(out.CallTable(res.Strategy))
	}
	for _, rec := range traced {
		fmt.Println(out.Hand(rec))
	}

	if c.Out != "" {
		if err := res.Strategy.Save(c.Out); err != nil {
			return fmt.Errorf("save strategy: %w", err)
		}
		logger.Info("Strategy written", "path", c.Out)
	}

	return archiveRun(ctx, logger, c.ledgerPath(file), res, started, finished)
}

func (c *TrainCmd) newTrainer(cfg solver.Config, opts []solver.Option) (*solver.Trainer, error) {
	if c.Resume == "" {
		return solver.NewTrainer(cfg, opts...)
	}
	if fixed := c.fixedByCheckpoint(); len(fixed) > 0 {
		return nil, fmt.Errorf("%s cannot be combined with --resume; the checkpoint's settings apply",
			strings.Join(fixed, ", "))
	}
	trainer, err := solver.LoadTrainerFromCheckpoint(c.Resume, opts...)
	if err != nil {
		return nil, err
	}
	if c.Hands != nil {
		if err := trainer.SetTotalHands(*c.Hands); err != nil {
			return nil, err
		}
	}
	return trainer, nil
}

func (c *TrainCmd) checkpointSettings(file *config.File) (string, int, time.Duration, error) {
	var (
		path     string
		every    int
		interval time.Duration
	)
	if file.Checkpoint != nil {
		d, err := file.CheckpointInterval()
		if err != nil {
			return "", 0, 0, err
		}
		path, every, interval = file.Checkpoint.Path, file.Checkpoint.Every, d
	}
	if c.Checkpoint != "" {
		path = c.Checkpoint
	}
	if c.CheckpointEvery > 0 {
		every = c.CheckpointEvery
	}
	if c.CheckpointAfter > 0 {
		interval = c.CheckpointAfter
	}
	if path == "" && c.Resume != "" {
		path = c.Resume
	}
	return path, every, interval, nil
}

func (c *TrainCmd) ledgerPath(file *config.File) string {
	if c.Ledger != "" {
		return c.Ledger
	}
	if file.Ledger != nil {
		return file.Ledger.Path
	}
	return ""
}

func (c *TrainCmd) progressFunc() func(solver.Progress) {
	if c.NoProgress {
		return nil
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return func(p solver.Progress) {
		pct := float64(p.Hands) / float64(p.TotalHands)
		fmt.Fprintf(os.Stderr, "\r%s %d/%d  avg %+.4f  %.0f hands/s ",
			bar.ViewAs(pct), p.Hands, p.TotalHands, p.AveragePayoff, p.HandsPerSecond)
	}
}

func archiveRun(ctx context.Context, logger *log.Logger, path string, res solver.Result, started, finished time.Time) error {
	if path == "" {
		return nil
	}
	store, err := ledger.Open(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	id, err := store.Record(ctx, ledger.FromResult(res, started, finished))
	if err != nil {
		return err
	}
	logger.Info("Run archived", "id", id, "ledger", path)
	return nil
}
