package main

import (
	"fmt"
	"os"

	"github.com/lox/fictitiousplay/cmd/fpsolver/shared"
	"github.com/lox/fictitiousplay/internal/report"
	"github.com/lox/fictitiousplay/solver"
)

type SweepCmd struct {
	Config string `short:"c" default:"fpsolver.hcl" type:"path" help:"HCL configuration file (defaults apply when missing)"`
	Overrides

	Runs int `short:"n" default:"4" help:"Number of independent runs"`
}

func (c *SweepCmd) Run(g *Globals) error {
	logger := shared.SetupLogger(g.Debug, g.LogFormat)
	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	_, cfg, err := loadSolverConfig(c.Config, c.Overrides)
	if err != nil {
		return err
	}

	logger.Info("Sweeping", "runs", c.Runs, "hands", cfg.Hands, "seed", cfg.Seed)
	results, agg, err := solver.RunIndependent(ctx, cfg, c.Runs, solver.WithLogger(logger))
	if err != nil {
		return err
	}

	out := report.New(os.Stdout)
	fmt.Println(out.Aggregate(results, agg))
	return nil
}
