package solver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lox/fictitiousplay/internal/fileutil"
	"github.com/lox/fictitiousplay/poker"
)

const strategyFileVersion = 1

// Strategy is the normalised view of a run's counts: Bets[h][b] is the
// probability player one bets b holding h, and Calls[h][b] the probability
// player two calls b holding h.
type Strategy struct {
	Version     int         `json:"version"`
	GeneratedAt time.Time   `json:"generated_at"`
	Hands       int         `json:"hands"`
	Config      Config      `json:"config"`
	TotalPayoff float64     `json:"total_payoff"`
	Bets        [][]float64 `json:"bets"`
	Calls       [][]float64 `json:"calls"`
}

// NewStrategy normalises counts into strategy tables. Run metadata is left
// for the caller to fill in.
func NewStrategy(counts *Counts) (*Strategy, error) {
	if counts == nil {
		return nil, errors.New("nil counts")
	}
	k := counts.Strengths()
	s := &Strategy{
		Version: strategyFileVersion,
		Bets:    make([][]float64, k),
		Calls:   make([][]float64, k),
	}
	for h := 0; h < k; h++ {
		dist, err := counts.BetDistribution(poker.Hand(h))
		if err != nil {
			return nil, err
		}
		s.Bets[h] = dist
		s.Calls[h] = make([]float64, k)
		for b := 0; b < k; b++ {
			p, err := counts.CallProbability(poker.Hand(h), poker.Bet(b))
			if err != nil {
				return nil, err
			}
			s.Calls[h][b] = p
		}
	}
	return s, nil
}

// Strengths returns the size of the hand and bet ranges.
func (s *Strategy) Strengths() int {
	return len(s.Bets)
}

// Validate checks the table shapes and that every bet row is a distribution.
func (s *Strategy) Validate() error {
	if s == nil {
		return errors.New("nil strategy")
	}
	if s.Version != strategyFileVersion {
		return fmt.Errorf("unsupported strategy version %d", s.Version)
	}
	k := len(s.Bets)
	if k < 2 {
		return fmt.Errorf("strategy has %d strengths, need at least 2", k)
	}
	if len(s.Calls) != k {
		return fmt.Errorf("call table has %d rows, want %d", len(s.Calls), k)
	}
	for h := 0; h < k; h++ {
		if len(s.Bets[h]) != k || len(s.Calls[h]) != k {
			return fmt.Errorf("row %d has wrong width", h)
		}
		sum := 0.0
		for b := 0; b < k; b++ {
			p := s.Bets[h][b]
			if p < 0 || p > 1 || math.IsNaN(p) {
				return fmt.Errorf("bet probability %v out of range at %d/%d", p, h, b)
			}
			sum += p
			c := s.Calls[h][b]
			if c < 0 || c > 1 || math.IsNaN(c) {
				return fmt.Errorf("call probability %v out of range at %d/%d", c, h, b)
			}
		}
		if math.Abs(sum-1) > 1e-9 {
			return fmt.Errorf("bet row %d sums to %v", h, sum)
		}
	}
	return nil
}

// Save writes the strategy to path as indented JSON.
func (s *Strategy) Save(path string) error {
	if s == nil {
		return errors.New("nil strategy")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteJSONAtomic(path, s, 0o644)
}

// LoadStrategy reads and validates a strategy file.
func LoadStrategy(path string) (*Strategy, error) {
	var s Strategy
	if err := fileutil.ReadJSON(path, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", path, err)
	}
	return &s, nil
}

// BetDistribution returns a copy of player one's bet row for h.
func (s *Strategy) BetDistribution(h poker.Hand) ([]float64, error) {
	if err := poker.CheckHand(h, s.Strengths()); err != nil {
		return nil, err
	}
	return append([]float64(nil), s.Bets[h]...), nil
}

// CallProbability returns how often player two calls b holding h.
func (s *Strategy) CallProbability(h poker.Hand, b poker.Bet) (float64, error) {
	k := s.Strengths()
	if err := poker.CheckHand(h, k); err != nil {
		return 0, err
	}
	if err := poker.CheckBet(b, k); err != nil {
		return 0, err
	}
	return s.Calls[h][b], nil
}

// BetDistance is the largest absolute difference between the two bet tables.
func (s *Strategy) BetDistance(other *Strategy) (float64, error) {
	if err := s.sameShape(other); err != nil {
		return 0, err
	}
	return supDistance(s.Bets, other.Bets), nil
}

// CallDistance is the largest absolute difference between the two call tables.
func (s *Strategy) CallDistance(other *Strategy) (float64, error) {
	if err := s.sameShape(other); err != nil {
		return 0, err
	}
	return supDistance(s.Calls, other.Calls), nil
}

// Distance is the larger of BetDistance and CallDistance.
func (s *Strategy) Distance(other *Strategy) (float64, error) {
	bet, err := s.BetDistance(other)
	if err != nil {
		return 0, err
	}
	call, err := s.CallDistance(other)
	if err != nil {
		return 0, err
	}
	return math.Max(bet, call), nil
}

func (s *Strategy) sameShape(other *Strategy) error {
	if s == nil || other == nil {
		return errors.New("nil strategy")
	}
	if s.Strengths() != other.Strengths() {
		return fmt.Errorf("strategies have %d and %d strengths", s.Strengths(), other.Strengths())
	}
	return nil
}

func supDistance(a, b [][]float64) float64 {
	d := 0.0
	for i := range a {
		for j := range a[i] {
			d = math.Max(d, math.Abs(a[i][j]-b[i][j]))
		}
	}
	return d
}
