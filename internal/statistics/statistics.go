// Package statistics accumulates per-hand payoffs into running summary
// statistics without retaining the individual results.
package statistics

import (
	"fmt"
	"math"
)

// HandResult is the outcome of one hand from the tracked player's seat.
type HandResult struct {
	Payoff   float64
	Showdown bool // false when the hand ended with a fold
}

// Statistics tracks running sums for a stream of hand results. The zero value
// is ready to use.
type Statistics struct {
	Hands int     `json:"hands"`
	Sum   float64 `json:"sum"`
	SumSq float64 `json:"sum_sq"` // sum of squares for variance

	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	ShowdownHands int     `json:"showdown_hands"`
	ShowdownSum   float64 `json:"showdown_sum"`
	FoldHands     int     `json:"fold_hands"`
	FoldSum       float64 `json:"fold_sum"`

	Best  float64 `json:"best"`
	Worst float64 `json:"worst"`
}

// Add incorporates a hand result.
func (s *Statistics) Add(r HandResult) {
	if s.Hands == 0 || r.Payoff > s.Best {
		s.Best = r.Payoff
	}
	if s.Hands == 0 || r.Payoff < s.Worst {
		s.Worst = r.Payoff
	}

	s.Hands++
	s.Sum += r.Payoff
	s.SumSq += r.Payoff * r.Payoff

	switch {
	case r.Payoff > 0:
		s.Wins++
	case r.Payoff < 0:
		s.Losses++
	}

	if r.Showdown {
		s.ShowdownHands++
		s.ShowdownSum += r.Payoff
	} else {
		s.FoldHands++
		s.FoldSum += r.Payoff
	}
}

// Merge folds other into s, as if every hand of other had been added to s.
func (s *Statistics) Merge(other Statistics) {
	if other.Hands == 0 {
		return
	}
	if s.Hands == 0 || other.Best > s.Best {
		s.Best = other.Best
	}
	if s.Hands == 0 || other.Worst < s.Worst {
		s.Worst = other.Worst
	}
	s.Hands += other.Hands
	s.Sum += other.Sum
	s.SumSq += other.SumSq
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.ShowdownHands += other.ShowdownHands
	s.ShowdownSum += other.ShowdownSum
	s.FoldHands += other.FoldHands
	s.FoldSum += other.FoldSum
}

// Mean returns the average payoff per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.Sum / float64(s.Hands)
}

// Variance returns the sample variance of the payoffs.
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	v := (s.SumSq - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
	if v < 0 {
		// rounding when every payoff is identical
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// ShowdownRate returns the fraction of hands that reached a showdown.
func (s *Statistics) ShowdownRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.ShowdownHands) / float64(s.Hands)
}

// IsLedgerBalanced checks that showdown and fold buckets add up to the total.
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.Sum-s.ShowdownSum-s.FoldSum) <= 1e-6*math.Max(1, math.Abs(s.Sum))
}

// Validate checks the internal consistency of the accumulated counters.
func (s *Statistics) Validate() error {
	if s.Hands < 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if s.ShowdownHands+s.FoldHands != s.Hands {
		return fmt.Errorf("showdown hands (%d) + fold hands (%d) != hands (%d)",
			s.ShowdownHands, s.FoldHands, s.Hands)
	}
	if s.Wins+s.Losses > s.Hands {
		return fmt.Errorf("wins (%d) + losses (%d) exceed hands (%d)", s.Wins, s.Losses, s.Hands)
	}
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: sum=%.6f showdown=%.6f fold=%.6f",
			s.Sum, s.ShowdownSum, s.FoldSum)
	}
	return nil
}
