package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Debug     bool   `help:"Enable debug logging"`
	LogFormat string `default:"text" enum:"text,json" help:"Log format (text|json)"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Train    TrainCmd         `cmd:"" help:"Approximate an equilibrium by fictitious play"`
	Simulate SimulateCmd      `cmd:"" help:"Play a best-responder against a fixed betting table"`
	Sweep    SweepCmd         `cmd:"" help:"Train several independent runs in parallel"`
	Report   ReportCmd        `cmd:"" help:"Render a saved or archived strategy"`
	History  HistoryCmd       `cmd:"" help:"List archived runs"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("fpsolver"),
		kong.Description("Fictitious-play solver for a one-street, two-player betting game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
			"ledger":  defaultLedgerPath,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
