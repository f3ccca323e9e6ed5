package simulator

import (
	"errors"
	"fmt"
	"math"
	rand "math/rand/v2"
	"strings"

	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver/runtime"
)

// Opponent bets first with a fixed, known-in-advance strategy.
type Opponent interface {
	Name() string
	Strengths() int
	// Bet draws a bet for hand.
	Bet(hand poker.Hand, rng *rand.Rand) (poker.Bet, error)
	// Belief returns P(bet | hand) for every hand. The weights need not sum
	// to one across hands.
	Belief(bet poker.Bet) ([]float64, error)
}

// OpponentNames lists the built-in betting tables.
var OpponentNames = []string{"uniform", "graded", "polarized"}

// OpponentByName builds a built-in betting table for a game of strengths.
func OpponentByName(name string, strengths int) (Opponent, error) {
	switch strings.ToLower(name) {
	case "uniform":
		return UniformTable(strengths)
	case "graded":
		return GradedTable(strengths)
	case "polarized":
		return PolarizedTable(strengths)
	default:
		return nil, fmt.Errorf("unknown opponent %q (want one of %s)", name, strings.Join(OpponentNames, ", "))
	}
}

// Table is an opponent described by rows[hand][bet] = P(bet | hand).
type Table struct {
	name string
	rows [][]float64
}

// NewTable validates that rows is square and every row is a distribution.
func NewTable(name string, rows [][]float64) (*Table, error) {
	k := len(rows)
	if k < 2 {
		return nil, fmt.Errorf("table %s: need at least 2 rows, got %d", name, k)
	}
	out := make([][]float64, k)
	for h, row := range rows {
		if len(row) != k {
			return nil, fmt.Errorf("table %s: row %d has %d entries, want %d", name, h, len(row), k)
		}
		sum := 0.0
		for b, p := range row {
			if p < 0 || math.IsNaN(p) {
				return nil, fmt.Errorf("table %s: negative probability at %d/%d", name, h, b)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			return nil, fmt.Errorf("table %s: row %d sums to %v", name, h, sum)
		}
		out[h] = append([]float64(nil), row...)
	}
	return &Table{name: name, rows: out}, nil
}

// UniformTable bets every size with equal probability regardless of hand.
func UniformTable(strengths int) (*Table, error) {
	if strengths < 2 {
		return nil, errors.New("strengths must be >= 2")
	}
	rows := make([][]float64, strengths)
	for h := range rows {
		rows[h] = make([]float64, strengths)
		for b := range rows[h] {
			rows[h][b] = 1 / float64(strengths)
		}
	}
	return NewTable("uniform", rows)
}

var gradedKernel = [...]float64{0.1, 0.2, 0.4, 0.2, 0.1}

// GradedTable bets roughly in proportion to hand strength: most often the
// bet equal to the hand, spreading to neighbouring sizes, with mass past
// either end folded onto the end.
func GradedTable(strengths int) (*Table, error) {
	if strengths < 2 {
		return nil, errors.New("strengths must be >= 2")
	}
	half := len(gradedKernel) / 2
	rows := make([][]float64, strengths)
	for h := range rows {
		rows[h] = make([]float64, strengths)
		for i, p := range gradedKernel {
			b := min(max(h+i-half, 0), strengths-1)
			rows[h][b] += p
		}
	}
	return NewTable("graded", rows)
}

// PolarizedTable bets one fixed size with the strongest and weakest hands
// and checks with the middle. For ten strengths that is a bet of 4 with
// {0, 1, 6, 7, 8, 9}.
func PolarizedTable(strengths int) (*Table, error) {
	if strengths < 2 {
		return nil, errors.New("strengths must be >= 2")
	}
	size := min(max(2*strengths/5, 1), strengths-1)
	bluffBelow := strengths / 5
	valueFrom := strengths - 2*strengths/5

	rows := make([][]float64, strengths)
	for h := range rows {
		rows[h] = make([]float64, strengths)
		if h < bluffBelow || h >= valueFrom {
			rows[h][size] = 1
		} else {
			rows[h][0] = 1
		}
	}
	return NewTable("polarized", rows)
}

func (t *Table) Name() string   { return t.name }
func (t *Table) Strengths() int { return len(t.rows) }

// Row returns a copy of the bet distribution for hand.
func (t *Table) Row(hand poker.Hand) ([]float64, error) {
	if err := poker.CheckHand(hand, len(t.rows)); err != nil {
		return nil, err
	}
	return append([]float64(nil), t.rows[hand]...), nil
}

func (t *Table) Bet(hand poker.Hand, rng *rand.Rand) (poker.Bet, error) {
	if err := poker.CheckHand(hand, len(t.rows)); err != nil {
		return 0, err
	}
	return sample(t.rows[hand], rng), nil
}

func (t *Table) Belief(bet poker.Bet) ([]float64, error) {
	if err := poker.CheckBet(bet, len(t.rows)); err != nil {
		return nil, err
	}
	out := make([]float64, len(t.rows))
	for h := range t.rows {
		out[h] = t.rows[h][bet]
	}
	return out, nil
}

func sample(weights []float64, rng *rand.Rand) poker.Bet {
	r := rng.Float64()
	for b, w := range weights {
		r -= w
		if r < 0 {
			return poker.Bet(b)
		}
	}
	for b := len(weights) - 1; b >= 0; b-- {
		if weights[b] > 0 {
			return poker.Bet(b)
		}
	}
	return 0
}

// PolicyOpponent plays player one's side of a trained strategy.
type PolicyOpponent struct {
	name   string
	policy *runtime.Policy
}

// NewPolicyOpponent wraps a loaded policy.
func NewPolicyOpponent(name string, p *runtime.Policy) (*PolicyOpponent, error) {
	if p == nil || p.Strategy() == nil {
		return nil, errors.New("nil policy")
	}
	return &PolicyOpponent{name: name, policy: p}, nil
}

func (o *PolicyOpponent) Name() string   { return o.name }
func (o *PolicyOpponent) Strengths() int { return o.policy.Strengths() }

func (o *PolicyOpponent) Bet(hand poker.Hand, rng *rand.Rand) (poker.Bet, error) {
	return o.policy.SampleBet(hand, rng)
}

func (o *PolicyOpponent) Belief(bet poker.Bet) ([]float64, error) {
	return o.policy.BetBelief(bet)
}
