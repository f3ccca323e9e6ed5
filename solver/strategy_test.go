package solver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver"
)

func trainedStrategy(t *testing.T, hands int, seed int64) *solver.Strategy {
	t.Helper()
	tr := newTrainer(t, testConfig(hands, seed))
	require.NoError(t, tr.Run(context.Background(), nil))
	s, err := tr.Strategy()
	require.NoError(t, err)
	return s
}

func TestStrategyFromCounts(t *testing.T) {
	counts, err := solver.NewCounts(3, 0.5)
	require.NoError(t, err)
	require.NoError(t, counts.RecordBet(2, 2))
	require.NoError(t, counts.RecordResponse(1, 0, poker.Call))

	s, err := solver.NewStrategy(counts)
	require.NoError(t, err)
	require.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Strengths())

	assert.InDelta(t, 1.5/2.5, s.Bets[2][2], 1e-12)
	assert.InDelta(t, 0.75, s.Calls[1][0], 1e-12)
	assert.InDelta(t, 0.5, s.Calls[0][0], 1e-12)

	dist, err := s.BetDistribution(2)
	require.NoError(t, err)
	dist[0] = 42
	assert.NotEqual(t, 42.0, s.Bets[2][0], "BetDistribution must copy")

	p, err := s.CallProbability(1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p, 1e-12)

	_, err = s.CallProbability(3, 0)
	assert.ErrorIs(t, err, poker.ErrHandOutOfRange)
}

func TestStrategySaveLoadRoundTrip(t *testing.T) {
	s := trainedStrategy(t, 500, 12)
	assert.Equal(t, 500, s.Hands)
	assert.Equal(t, int64(12), s.Config.Seed)

	path := filepath.Join(t.TempDir(), "out", "strategy.json")
	require.NoError(t, s.Save(path))

	loaded, err := solver.LoadStrategy(path)
	require.NoError(t, err)
	assert.Equal(t, s.Bets, loaded.Bets)
	assert.Equal(t, s.Calls, loaded.Calls)
	assert.Equal(t, s.Hands, loaded.Hands)
	assert.Equal(t, s.Config, loaded.Config)
	assert.Equal(t, s.TotalPayoff, loaded.TotalPayoff)
	assert.True(t, s.GeneratedAt.Equal(loaded.GeneratedAt))

	d, err := s.Distance(loaded)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestLoadStrategyRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	s := trainedStrategy(t, 100, 1)
	s.Bets[0][0] += 0.5
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, s.Save(bad))
	_, err := solver.LoadStrategy(bad)
	assert.Error(t, err)

	s = trainedStrategy(t, 100, 1)
	s.Version = 99
	versioned := filepath.Join(dir, "version.json")
	require.NoError(t, s.Save(versioned))
	_, err = solver.LoadStrategy(versioned)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0o644))
	_, err = solver.LoadStrategy(garbage)
	assert.Error(t, err)

	var nilStrategy *solver.Strategy
	assert.Error(t, nilStrategy.Save(filepath.Join(dir, "nil.json")))
	assert.Error(t, s.Save(""))
}

func TestStrategyDistance(t *testing.T) {
	a, err := solver.NewCounts(3, 1)
	require.NoError(t, err)
	b := a.Clone()
	require.NoError(t, b.RecordBet(0, 0))
	require.NoError(t, b.RecordResponse(2, 1, poker.Call))
	require.NoError(t, b.RecordResponse(2, 1, poker.Call))

	sa, err := solver.NewStrategy(a)
	require.NoError(t, err)
	sb, err := solver.NewStrategy(b)
	require.NoError(t, err)

	// bet row 0 moves from 1/3 to 2/4 on bet 0
	bd, err := sa.BetDistance(sb)
	require.NoError(t, err)
	assert.InDelta(t, 0.5-1.0/3, bd, 1e-12)

	// call cell moves from 1/2 to 3/4
	cd, err := sa.CallDistance(sb)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cd, 1e-12)

	d, err := sa.Distance(sb)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, d, 1e-12)

	other, err := solver.NewCounts(4, 1)
	require.NoError(t, err)
	so, err := solver.NewStrategy(other)
	require.NoError(t, err)
	_, err = sa.Distance(so)
	assert.Error(t, err)
}
