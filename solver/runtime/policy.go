package runtime

import (
	"errors"
	rand "math/rand/v2"

	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver"
)

// Policy exposes read-only access to a trained strategy for sampling actions
// during play.
type Policy struct {
	strategy *solver.Strategy
}

// Load constructs a runtime policy from a stored strategy file.
func Load(path string) (*Policy, error) {
	s, err := solver.LoadStrategy(path)
	if err != nil {
		return nil, err
	}
	return &Policy{strategy: s}, nil
}

// New wraps an in-memory strategy after validating it.
func New(s *solver.Strategy) (*Policy, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Policy{strategy: s}, nil
}

// Strategy returns the underlying strategy (read-only).
func (p *Policy) Strategy() *solver.Strategy {
	if p == nil {
		return nil
	}
	return p.strategy
}

// Strengths returns the size of the hand and bet ranges.
func (p *Policy) Strengths() int {
	if p == nil || p.strategy == nil {
		return 0
	}
	return p.strategy.Strengths()
}

// BetWeights returns player one's bet distribution holding h.
func (p *Policy) BetWeights(h poker.Hand) ([]float64, error) {
	if p == nil || p.strategy == nil {
		return nil, errors.New("nil policy")
	}
	return p.strategy.BetDistribution(h)
}

// BetBelief returns, for each hand, how likely player one is to bet b with
// it. The weights are not normalised across hands.
func (p *Policy) BetBelief(b poker.Bet) ([]float64, error) {
	if p == nil || p.strategy == nil {
		return nil, errors.New("nil policy")
	}
	k := p.strategy.Strengths()
	if err := poker.CheckBet(b, k); err != nil {
		return nil, err
	}
	out := make([]float64, k)
	for h := range out {
		out[h] = p.strategy.Bets[h][b]
	}
	return out, nil
}

// CallProbability returns how often player two calls b holding h.
func (p *Policy) CallProbability(h poker.Hand, b poker.Bet) (float64, error) {
	if p == nil || p.strategy == nil {
		return 0, errors.New("nil policy")
	}
	return p.strategy.CallProbability(h, b)
}

// SampleBet draws a bet for h from the stored distribution.
func (p *Policy) SampleBet(h poker.Hand, rng *rand.Rand) (poker.Bet, error) {
	weights, err := p.BetWeights(h)
	if err != nil {
		return 0, err
	}
	u := rng.Float64()
	acc := 0.0
	for b, w := range weights {
		acc += w
		if u < acc {
			return poker.Bet(b), nil
		}
	}
	// rounding left u above the final cumulative sum
	for b := len(weights) - 1; b >= 0; b-- {
		if weights[b] > 0 {
			return poker.Bet(b), nil
		}
	}
	return 0, nil
}

// SampleResponse draws player two's answer to b holding h.
func (p *Policy) SampleResponse(h poker.Hand, b poker.Bet, rng *rand.Rand) (poker.Response, error) {
	call, err := p.CallProbability(h, b)
	if err != nil {
		return poker.Fold, err
	}
	if rng.Float64() < call {
		return poker.Call, nil
	}
	return poker.Fold, nil
}
