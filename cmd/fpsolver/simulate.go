package main

import (
	"fmt"
	"os"

	"github.com/lox/fictitiousplay/cmd/fpsolver/shared"
	"github.com/lox/fictitiousplay/internal/report"
	"github.com/lox/fictitiousplay/internal/simulator"
	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver/runtime"
)

type SimulateCmd struct {
	Opponent  string  `default:"graded" help:"Opponent betting table (uniform, graded, polarized) or a strategy JSON file"`
	Belief    string  `help:"Betting table the hero assumes; defaults to --opponent"`
	Hands     int     `default:"10000" help:"Number of hands to simulate"`
	Seed      int64   `default:"0" help:"RNG seed (0 for random)"`
	Strengths int     `short:"k" default:"10" help:"Number of hand strengths for built-in tables"`
	Ante      float64 `default:"2" help:"Ante paid by each player"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	logger := shared.SetupLogger(g.Debug, g.LogFormat)
	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	actual, err := resolveOpponent(c.Opponent, c.Strengths)
	if err != nil {
		return err
	}
	belief := actual
	if c.Belief != "" {
		belief, err = resolveOpponent(c.Belief, actual.Strengths())
		if err != nil {
			return err
		}
	}

	sim := simulator.New(simulator.Config{
		Hands:  c.Hands,
		Game:   poker.Game{Strengths: actual.Strengths(), Ante: c.Ante},
		Seed:   c.Seed,
		Actual: actual,
		Belief: belief,
		Logger: logger,
	})
	stats, info, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	out := report.New(os.Stdout)
	fmt.Println(out.Statistics("Best response vs "+info, *stats))
	return nil
}

// resolveOpponent treats name as a strategy file when one exists at that
// path and as a built-in table otherwise.
func resolveOpponent(name string, strengths int) (simulator.Opponent, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		policy, err := runtime.Load(name)
		if err != nil {
			return nil, err
		}
		return simulator.NewPolicyOpponent(name, policy)
	}
	return simulator.OpponentByName(name, strengths)
}
