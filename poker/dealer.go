package poker

import rand "math/rand/v2"

// Dealer draws private hand strengths uniformly from [0, strengths) using an
// explicit random source so that runs are reproducible.
type Dealer struct {
	strengths int
	rng       *rand.Rand
}

// NewDealer creates a dealer over [0, strengths). The rng is not copied; the
// caller owns it and must not share it across goroutines.
func NewDealer(strengths int, rng *rand.Rand) *Dealer {
	return &Dealer{strengths: strengths, rng: rng}
}

// Draw returns one uniformly drawn hand.
func (d *Dealer) Draw() Hand {
	return Hand(d.rng.IntN(d.strengths))
}

// Deal draws independent hands for player one and player two, in that order.
func (d *Dealer) Deal() (p1, p2 Hand) {
	p1 = d.Draw()
	p2 = d.Draw()
	return p1, p2
}

// Strengths returns the size of the hand range.
func (d *Dealer) Strengths() int {
	return d.strengths
}
