package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/fictitiousplay/internal/ledger"
	"github.com/lox/fictitiousplay/internal/report"
)

type HistoryCmd struct {
	Ledger string `default:"${ledger}" type:"path" help:"Run archive database"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of runs to list"`
}

func (c *HistoryCmd) Run(g *Globals) error {
	store, err := ledger.Open(c.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	fmt.Print(report.New(os.Stdout).History(runs))
	return nil
}
