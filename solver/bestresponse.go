package solver

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/fictitiousplay/poker"
)

// BetValues returns player one's expected value for every bet size holding
// hand. Opponent hands are taken as uniformly distributed and player two's
// reaction to each (hand, bet) pair as the empirical response frequencies in
// counts.
func BetValues(hand poker.Hand, pot float64, counts *Counts) ([]float64, error) {
	k := counts.Strengths()
	if err := poker.CheckHand(hand, k); err != nil {
		return nil, err
	}

	values := make([]float64, k)
	for b := 0; b < k; b++ {
		bet := poker.Bet(b)
		ev := 0.0
		for h := 0; h < k; h++ {
			opp := poker.Hand(h)
			dist, err := counts.ResponseDistribution(opp, bet)
			if err != nil {
				return nil, err
			}
			for _, r := range poker.Responses {
				v, err := poker.Payoff(hand, bet, opp, r, pot)
				if err != nil {
					return nil, err
				}
				ev += dist[r] * v
			}
		}
		values[b] = ev / float64(k)
	}
	return values, nil
}

// BestBet returns the bet that maximises BetValues. Ties go to the smallest
// bet.
func BestBet(hand poker.Hand, pot float64, counts *Counts) (poker.Bet, error) {
	return bestBet(hand, pot, counts, nil)
}

func bestBet(hand poker.Hand, pot float64, counts *Counts, tieRNG *rand.Rand) (poker.Bet, error) {
	values, err := BetValues(hand, pot, counts)
	if err != nil {
		return 0, err
	}
	return poker.Bet(argMax(values, tieRNG)), nil
}

// ResponseValues returns player two's value for each response holding hand
// and facing bet. The belief over player one's hand is proportional to how
// often each hand has bet exactly this amount.
//
// Values are measured relative to folding, so the Fold entry is always 0 and
// the Call entry is the expected gain of calling over folding.
func ResponseValues(hand poker.Hand, pot float64, bet poker.Bet, counts *Counts) ([poker.NumResponses]float64, error) {
	k := counts.Strengths()
	if err := poker.CheckHand(hand, k); err != nil {
		return [poker.NumResponses]float64{}, err
	}
	weights := make([]float64, k)
	for h := 0; h < k; h++ {
		w, err := counts.BetCount(poker.Hand(h), bet)
		if err != nil {
			return [poker.NumResponses]float64{}, err
		}
		weights[h] = w
	}
	return responseValues(hand, pot, bet, weights)
}

// BestResponse returns player two's best answer to bet given the empirical
// bets in counts. Ties go to Fold.
func BestResponse(hand poker.Hand, pot float64, bet poker.Bet, counts *Counts) (poker.Response, error) {
	return bestResponse(hand, pot, bet, counts, nil)
}

func bestResponse(hand poker.Hand, pot float64, bet poker.Bet, counts *Counts, tieRNG *rand.Rand) (poker.Response, error) {
	values, err := ResponseValues(hand, pot, bet, counts)
	if err != nil {
		return poker.Fold, err
	}
	return poker.Responses[argMax(values[:], tieRNG)], nil
}

// BestResponseToBelief is BestResponse against an arbitrary belief: weights[h]
// is proportional to the probability that player one holds h given bet. The
// weights need not be normalised but must be non-negative with positive mass.
func BestResponseToBelief(hand poker.Hand, pot float64, bet poker.Bet, weights []float64) (poker.Response, error) {
	if err := poker.CheckHand(hand, len(weights)); err != nil {
		return poker.Fold, err
	}
	if err := poker.CheckBet(bet, len(weights)); err != nil {
		return poker.Fold, err
	}
	values, err := responseValues(hand, pot, bet, weights)
	if err != nil {
		return poker.Fold, err
	}
	return poker.Responses[argMax(values[:], nil)], nil
}

func responseValues(hand poker.Hand, pot float64, bet poker.Bet, weights []float64) ([poker.NumResponses]float64, error) {
	var values [poker.NumResponses]float64

	total := 0.0
	for h, w := range weights {
		if w < 0 {
			return values, fmt.Errorf("negative belief weight %v for hand %d", w, h)
		}
		total += w
	}
	if total <= 0 {
		return values, fmt.Errorf("%w: no belief mass for bet %d", ErrDegenerateCounts, bet)
	}

	for h, w := range weights {
		if w == 0 {
			continue
		}
		opp := poker.Hand(h)
		call, err := poker.PayoffToP2(opp, bet, hand, poker.Call, pot)
		if err != nil {
			return values, err
		}
		fold, err := poker.PayoffToP2(opp, bet, hand, poker.Fold, pot)
		if err != nil {
			return values, err
		}
		values[poker.Call] += w / total * (call - fold)
	}
	return values, nil
}

// argMax returns the index of the largest value. With a nil rng ties go to
// the lowest index; otherwise one of the tied indices is chosen uniformly.
func argMax(values []float64, rng *rand.Rand) int {
	best := 0
	ties := 1
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[best]:
			best = i
			ties = 1
		case values[i] == values[best] && rng != nil:
			// reservoir sampling over the tied indices
			ties++
			if rng.IntN(ties) == 0 {
				best = i
			}
		}
	}
	return best
}
