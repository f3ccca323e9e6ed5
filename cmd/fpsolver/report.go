package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lox/fictitiousplay/internal/ledger"
	"github.com/lox/fictitiousplay/internal/report"
	"github.com/lox/fictitiousplay/solver"
)

const defaultLedgerPath = "runs/ledger.db"

type ReportCmd struct {
	Strategy string `arg:"" optional:"" type:"existingfile" help:"Strategy JSON file"`
	RunID    string `name:"run" help:"Archived run id to render instead of a file"`
	Ledger   string `default:"${ledger}" type:"path" help:"Run archive database"`
}

func (c *ReportCmd) Run(g *Globals) error {
	strategy, err := c.load(context.Background())
	if err != nil {
		return err
	}

	out := report.New(os.Stdout)
	cfg := strategy.Config
	fmt.Printf("%d hands, K=%d, ante %g, seed %d, total payoff %+.2f\n\n",
		strategy.Hands, cfg.Strengths, cfg.Ante, cfg.Seed, strategy.TotalPayoff)
	fmt.Println(out.BetTable(strategy))
	fmt.Println(out.CallTable(strategy))
	return nil
}

func (c *ReportCmd) load(ctx context.Context) (*solver.Strategy, error) {
	switch {
	case c.Strategy != "" && c.RunID != "":
		return nil, errors.New("pass a strategy file or --run, not both")
	case c.Strategy != "":
		return solver.LoadStrategy(c.Strategy)
	case c.RunID != "":
		store, err := ledger.Open(c.Ledger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		run, err := store.Get(ctx, c.RunID)
		if err != nil {
			return nil, err
		}
		return run.Strategy, run.Strategy.Validate()
	default:
		return nil, errors.New("a strategy file or --run is required")
	}
}
