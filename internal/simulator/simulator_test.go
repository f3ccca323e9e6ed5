package simulator

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/lox/fictitiousplay/internal/randutil"
	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver"
	"github.com/lox/fictitiousplay/solver/runtime"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel})
}

func mustOpponent(t *testing.T, name string) Opponent {
	t.Helper()
	opp, err := OpponentByName(name, poker.DefaultStrengths)
	if err != nil {
		t.Fatalf("opponent %s: %v", name, err)
	}
	return opp
}

func TestGradedTableMatchesHandAuthoredRows(t *testing.T) {
	want := [][]float64{
		{0.7, 0.2, 0.1, 0, 0, 0, 0, 0, 0, 0},
		{0.3, 0.4, 0.2, 0.1, 0, 0, 0, 0, 0, 0},
		{0.1, 0.2, 0.4, 0.2, 0.1, 0, 0, 0, 0, 0},
		{0, 0.1, 0.2, 0.4, 0.2, 0.1, 0, 0, 0, 0},
		{0, 0, 0.1, 0.2, 0.4, 0.2, 0.1, 0, 0, 0},
		{0, 0, 0, 0.1, 0.2, 0.4, 0.2, 0.1, 0, 0},
		{0, 0, 0, 0, 0.1, 0.2, 0.4, 0.2, 0.1, 0},
		{0, 0, 0, 0, 0, 0.1, 0.2, 0.4, 0.2, 0.1},
		{0, 0, 0, 0, 0, 0, 0.1, 0.2, 0.4, 0.3},
		{0, 0, 0, 0, 0, 0, 0, 0.1, 0.2, 0.7},
	}

	table, err := GradedTable(10)
	if err != nil {
		t.Fatalf("graded table: %v", err)
	}
	for h := range want {
		row, err := table.Row(poker.Hand(h))
		if err != nil {
			t.Fatalf("row %d: %v", h, err)
		}
		for b := range want[h] {
			if math.Abs(row[b]-want[h][b]) > 1e-12 {
				t.Errorf("graded[%d][%d] = %v, want %v", h, b, row[b], want[h][b])
			}
		}
	}
}

func TestPolarizedTable(t *testing.T) {
	table, err := PolarizedTable(10)
	if err != nil {
		t.Fatalf("polarized table: %v", err)
	}
	betting := map[int]bool{0: true, 1: true, 6: true, 7: true, 8: true, 9: true}
	for h := 0; h < 10; h++ {
		row, err := table.Row(poker.Hand(h))
		if err != nil {
			t.Fatalf("row %d: %v", h, err)
		}
		want := 0
		if betting[h] {
			want = 4
		}
		if row[want] != 1 {
			t.Errorf("hand %d: expected certain bet of %d, got row %v", h, want, row)
		}
	}

	// every smaller game still yields a valid table
	for k := 2; k < 10; k++ {
		if _, err := PolarizedTable(k); err != nil {
			t.Errorf("polarized table for %d strengths: %v", k, err)
		}
		if _, err := GradedTable(k); err != nil {
			t.Errorf("graded table for %d strengths: %v", k, err)
		}
	}
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"too small", [][]float64{{1}}},
		{"ragged", [][]float64{{1, 0}, {1}}},
		{"short sum", [][]float64{{0.5, 0.4}, {0, 1}}},
		{"negative", [][]float64{{1.5, -0.5}, {0, 1}}},
		{"nan", [][]float64{{math.NaN(), 1}, {0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.name, tt.rows); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	table, err := NewTable("ok", [][]float64{{0.25, 0.75}, {1, 0}})
	if err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	belief, err := table.Belief(1)
	if err != nil {
		t.Fatalf("belief: %v", err)
	}
	if belief[0] != 0.75 || belief[1] != 0 {
		t.Errorf("unexpected belief %v", belief)
	}
	if _, err := table.Belief(2); err == nil {
		t.Errorf("expected out-of-range bet error")
	}
}

func TestOpponentByName(t *testing.T) {
	for _, name := range OpponentNames {
		opp := mustOpponent(t, name)
		if opp.Name() != name {
			t.Errorf("expected name %s, got %s", name, opp.Name())
		}
		if opp.Strengths() != poker.DefaultStrengths {
			t.Errorf("expected %d strengths, got %d", poker.DefaultStrengths, opp.Strengths())
		}
	}
	if _, err := OpponentByName("nit", 10); err == nil {
		t.Errorf("expected error for unknown opponent")
	}
}

func TestTableBetFollowsRow(t *testing.T) {
	opp := mustOpponent(t, "graded")
	rng := randutil.New(1)

	const draws = 10000
	counts := make([]int, poker.DefaultStrengths)
	for i := 0; i < draws; i++ {
		b, err := opp.Bet(0, rng)
		if err != nil {
			t.Fatalf("bet: %v", err)
		}
		counts[b]++
	}
	for b, want := range []float64{0.7, 0.2, 0.1} {
		got := float64(counts[b]) / draws
		if math.Abs(got-want) > 0.03 {
			t.Errorf("bet %d frequency %.3f, want about %.1f", b, got, want)
		}
	}
	for b := 3; b < poker.DefaultStrengths; b++ {
		if counts[b] != 0 {
			t.Errorf("bet %d drawn %d times, expected never", b, counts[b])
		}
	}
}

func TestSimulatorRunValidation(t *testing.T) {
	ctx := context.Background()
	if _, _, err := New(Config{Hands: 10, Game: poker.DefaultGame()}).Run(ctx); err == nil {
		t.Errorf("expected error without an opponent")
	}
	if _, _, err := New(Config{Hands: 0, Game: poker.DefaultGame(), Actual: mustOpponent(t, "uniform")}).Run(ctx); err == nil {
		t.Errorf("expected error for zero hands")
	}

	small, err := UniformTable(5)
	if err != nil {
		t.Fatalf("uniform table: %v", err)
	}
	if _, _, err := New(Config{Hands: 10, Game: poker.DefaultGame(), Actual: small}).Run(ctx); err == nil {
		t.Errorf("expected error for mismatched strengths")
	}
}

func TestSimulatorDeterministic(t *testing.T) {
	ctx := context.Background()
	run := func() float64 {
		stats, _, err := RunSimulation(ctx, 2000, "graded", 99, quietLogger())
		if err != nil {
			t.Fatalf("run simulation: %v", err)
		}
		return stats.Sum
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("same seed produced %v and %v", a, b)
	}
}

func TestSimulatorBeatsGradedOpponent(t *testing.T) {
	ctx := context.Background()
	graded := mustOpponent(t, "graded")
	uniform := mustOpponent(t, "uniform")

	correct, info, err := New(Config{
		Hands:  20000,
		Game:   poker.DefaultGame(),
		Seed:   1,
		Actual: graded,
		Logger: quietLogger(),
	}).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if info != "graded" {
		t.Errorf("unexpected matchup %q", info)
	}
	if err := correct.Validate(); err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if correct.Hands != 20000 {
		t.Fatalf("expected 20000 hands, got %d", correct.Hands)
	}

	misread, info, err := New(Config{
		Hands:  20000,
		Game:   poker.DefaultGame(),
		Seed:   1,
		Actual: graded,
		Belief: uniform,
		Logger: quietLogger(),
	}).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if info != "graded (believed uniform)" {
		t.Errorf("unexpected matchup %q", info)
	}

	// Always folding loses half the pot every hand.
	foldEV := -poker.DefaultGame().Pot() / 2
	if correct.Mean() <= foldEV || correct.Mean() < 0.5 {
		t.Errorf("expected a clearly positive win rate, got %.3f", correct.Mean())
	}
	if correct.Mean() < misread.Mean()+0.5 {
		t.Errorf("modelling the opponent correctly should pay: %.3f vs %.3f", correct.Mean(), misread.Mean())
	}
}

func TestSimulatorFoldsToUnexpectedBet(t *testing.T) {
	// The hero believes the opponent only ever checks, so any bet is a
	// zero-mass event and must be folded.
	checks := make([][]float64, 3)
	for h := range checks {
		checks[h] = []float64{1, 0, 0}
	}
	belief, err := NewTable("checks", checks)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	alwaysBets := make([][]float64, 3)
	for h := range alwaysBets {
		alwaysBets[h] = []float64{0, 0, 1}
	}
	actual, err := NewTable("bets", alwaysBets)
	if err != nil {
		t.Fatalf("table: %v", err)
	}

	stats, _, err := New(Config{
		Hands:  200,
		Game:   poker.Game{Strengths: 3, Ante: 2},
		Seed:   5,
		Actual: actual,
		Belief: belief,
		Logger: quietLogger(),
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.FoldHands != 200 || stats.Sum != -400 {
		t.Fatalf("expected every hand folded for -2, got %+v", stats)
	}
}

func TestSimulatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := RunSimulation(ctx, 100, "uniform", 1, nil)
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestPolicyOpponent(t *testing.T) {
	cfg := solver.DefaultConfig()
	cfg.Hands = 2000
	cfg.Seed = 3
	tr, err := solver.NewTrainer(cfg)
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if err := tr.Run(context.Background(), nil); err != nil {
		t.Fatalf("train: %v", err)
	}
	strategy, err := tr.Strategy()
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	path := filepath.Join(t.TempDir(), "strategy.json")
	if err := strategy.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	policy, err := runtime.Load(path)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}

	opp, err := NewPolicyOpponent("trained", policy)
	if err != nil {
		t.Fatalf("policy opponent: %v", err)
	}
	stats, info, err := New(Config{
		Hands:  2000,
		Game:   poker.DefaultGame(),
		Seed:   4,
		Actual: opp,
		Logger: quietLogger(),
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if info != "trained" || stats.Hands != 2000 {
		t.Fatalf("unexpected result %q %+v", info, stats)
	}

	if _, err := NewPolicyOpponent("nil", nil); err == nil {
		t.Fatalf("expected error for nil policy")
	}
}
