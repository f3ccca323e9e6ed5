package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/fictitiousplay/internal/randutil"
	"github.com/lox/fictitiousplay/poker"
)

const testPot = 2 * poker.DefaultAnte

func freshCounts(t *testing.T) *Counts {
	t.Helper()
	c, err := NewCounts(poker.DefaultStrengths, DefaultSmoothing)
	require.NoError(t, err)
	return c
}

func TestBetValuesAgainstUniformResponses(t *testing.T) {
	c := freshCounts(t)

	// With every response cell equal, a bet of b with hand x is worth
	// 1 + (b+2)(wins-losses)/20 at pot 4.
	values, err := BetValues(9, testPot, c)
	require.NoError(t, err)
	require.Len(t, values, poker.DefaultStrengths)
	assert.InDelta(t, 5.95, values[9], 1e-9)
	assert.InDelta(t, 1.9, values[0], 1e-9)

	values, err = BetValues(0, testPot, c)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, values[0], 1e-9)
	assert.InDelta(t, -3.95, values[9], 1e-9)
}

func TestBestBetFreshCounts(t *testing.T) {
	c := freshCounts(t)

	cases := []struct {
		hand poker.Hand
		want poker.Bet
	}{
		{hand: 0, want: 0},
		{hand: 4, want: 0},
		{hand: 5, want: 9},
		{hand: 9, want: 9},
	}
	for _, tc := range cases {
		got, err := BestBet(tc.hand, testPot, c)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "hand %d", tc.hand)
	}
}

func TestBestBetPrefersSmallestOnTies(t *testing.T) {
	c := freshCounts(t)

	// A sliver of calls is still enough to separate the bets of the nuts.
	for h := 0; h < poker.DefaultStrengths; h++ {
		for b := 0; b < poker.DefaultStrengths; b++ {
			for i := 0; i < 10; i++ {
				require.NoError(t, c.RecordResponse(poker.Hand(h), poker.Bet(b), poker.Fold))
			}
		}
	}

	values, err := BetValues(9, testPot, c)
	require.NoError(t, err)
	assert.Greater(t, values[9], values[0])

	// With no calls at all every bet is worth exactly the pot share.
	folding := freshCounts(t)
	for h := 0; h < poker.DefaultStrengths; h++ {
		for b := 0; b < poker.DefaultStrengths; b++ {
			folding.responses[h][b][poker.Call] = 0
		}
	}
	for h := 0; h < poker.DefaultStrengths; h++ {
		bet, err := BestBet(poker.Hand(h), testPot, folding)
		require.NoError(t, err)
		assert.Equal(t, poker.Bet(0), bet, "hand %d", h)
	}
}

func TestResponseValuesRelativeToFold(t *testing.T) {
	c := freshCounts(t)

	values, err := ResponseValues(0, testPot, 0, c)
	require.NoError(t, err)
	assert.Equal(t, 0.0, values[poker.Fold])
	assert.InDelta(t, 0.2, values[poker.Call], 1e-9)

	values, err = ResponseValues(0, testPot, 3, c)
	require.NoError(t, err)
	assert.Equal(t, 0.0, values[poker.Fold])
	assert.InDelta(t, (2.0-9*3)/10, values[poker.Call], 1e-9)
}

func TestBestResponseFreshCounts(t *testing.T) {
	c := freshCounts(t)

	r, err := BestResponse(0, testPot, 0, c)
	require.NoError(t, err)
	assert.Equal(t, poker.Call, r)

	for b := 1; b < poker.DefaultStrengths; b++ {
		r, err := BestResponse(0, testPot, poker.Bet(b), c)
		require.NoError(t, err)
		assert.Equal(t, poker.Fold, r, "bet %d", b)
	}

	r, err = BestResponse(9, testPot, 9, c)
	require.NoError(t, err)
	assert.Equal(t, poker.Call, r)
}

func TestBestResponseUsesBetHistory(t *testing.T) {
	c := freshCounts(t)

	// Only hand 9 has ever bet 5; calling it with anything but 9 loses.
	for i := 0; i < 100; i++ {
		require.NoError(t, c.RecordBet(9, 5))
	}
	r, err := BestResponse(8, testPot, 5, c)
	require.NoError(t, err)
	assert.Equal(t, poker.Fold, r)

	// Only hand 0 has ever bet 5; calling with 1 wins.
	c = freshCounts(t)
	for i := 0; i < 100; i++ {
		require.NoError(t, c.RecordBet(0, 5))
	}
	r, err = BestResponse(1, testPot, 5, c)
	require.NoError(t, err)
	assert.Equal(t, poker.Call, r)
}

func TestBestResponseToBelief(t *testing.T) {
	weights := make([]float64, poker.DefaultStrengths)
	for h := 5; h < poker.DefaultStrengths; h++ {
		weights[h] = 1
	}

	// Against a check from stronger hands, calling loses the pot share that
	// folding gives up anyway, so the two tie and Fold wins.
	r, err := BestResponseToBelief(3, testPot, 0, weights)
	require.NoError(t, err)
	assert.Equal(t, poker.Fold, r)

	r, err = BestResponseToBelief(3, testPot, 2, weights)
	require.NoError(t, err)
	assert.Equal(t, poker.Fold, r)

	weak := make([]float64, poker.DefaultStrengths)
	weak[0], weak[1] = 3, 1
	r, err = BestResponseToBelief(3, testPot, 6, weak)
	require.NoError(t, err)
	assert.Equal(t, poker.Call, r)
}

func TestBestResponseToBeliefRejectsBadWeights(t *testing.T) {
	_, err := BestResponseToBelief(0, testPot, 0, make([]float64, 4))
	assert.ErrorIs(t, err, ErrDegenerateCounts)

	_, err = BestResponseToBelief(0, testPot, 0, []float64{1, -1, 1})
	assert.Error(t, err)

	_, err = BestResponseToBelief(4, testPot, 0, []float64{1, 1, 1})
	assert.ErrorIs(t, err, poker.ErrHandOutOfRange)

	_, err = BestResponseToBelief(0, testPot, 3, []float64{1, 1, 1})
	assert.ErrorIs(t, err, poker.ErrBetOutOfRange)
}

func TestArgMaxLowestOnTie(t *testing.T) {
	assert.Equal(t, 1, argMax([]float64{1, 3, 3, 2}, nil))
	assert.Equal(t, 0, argMax([]float64{0, 0}, nil))
	assert.Equal(t, 2, argMax([]float64{-3, -2, -1}, nil))
}

func TestArgMaxRandomOnTie(t *testing.T) {
	rng := randutil.New(7)
	seen := map[int]int{}
	for i := 0; i < 1000; i++ {
		seen[argMax([]float64{1, 3, 3, 2}, rng)]++
	}
	assert.Zero(t, seen[0])
	assert.Zero(t, seen[3])
	assert.InDelta(t, 500, seen[1], 100)
	assert.InDelta(t, 500, seen[2], 100)

	// a unique maximum is never randomised away
	for i := 0; i < 100; i++ {
		assert.Equal(t, 3, argMax([]float64{1, 2, 3, 4}, rng))
	}
}
