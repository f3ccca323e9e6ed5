package solver

import (
	"errors"
	"fmt"

	"github.com/lox/fictitiousplay/poker"
)

// ErrDegenerateCounts reports a count vector with no mass. Smoothing makes
// this impossible for a correctly initialised store, so seeing it means the
// store was built or restored incorrectly.
var ErrDegenerateCounts = errors.New("degenerate counts")

// Counts holds the empirical action frequencies both players believe about
// each other. Player one's table is indexed [hand][bet]; player two's is
// indexed [hand][bet faced][response].
//
// Every cell starts at the smoothing constant and is only ever incremented,
// so every conditional frequency is defined. Counts is not safe for
// concurrent use.
type Counts struct {
	strengths int
	smoothing float64
	bets      [][]float64
	responses [][][poker.NumResponses]float64
}

// NewCounts returns smoothing-only tables for a game with the given number of
// strengths.
func NewCounts(strengths int, smoothing float64) (*Counts, error) {
	if strengths < 2 {
		return nil, fmt.Errorf("strengths must be >= 2 (got %d)", strengths)
	}
	if smoothing <= 0 {
		return nil, fmt.Errorf("smoothing must be > 0 (got %v)", smoothing)
	}

	c := &Counts{
		strengths: strengths,
		smoothing: smoothing,
		bets:      make([][]float64, strengths),
		responses: make([][][poker.NumResponses]float64, strengths),
	}
	for h := 0; h < strengths; h++ {
		c.bets[h] = make([]float64, strengths)
		c.responses[h] = make([][poker.NumResponses]float64, strengths)
		for b := 0; b < strengths; b++ {
			c.bets[h][b] = smoothing
			for r := range c.responses[h][b] {
				c.responses[h][b][r] = smoothing
			}
		}
	}
	return c, nil
}

// Strengths returns the size of the hand and bet ranges.
func (c *Counts) Strengths() int {
	return c.strengths
}

// Smoothing returns the initial value of every cell.
func (c *Counts) Smoothing() float64 {
	return c.smoothing
}

// RecordBet notes that player one bet b holding h.
func (c *Counts) RecordBet(h poker.Hand, b poker.Bet) error {
	if err := c.check(h, b); err != nil {
		return err
	}
	c.bets[h][b]++
	return nil
}

// RecordResponse notes that player two answered bet b with r holding h.
func (c *Counts) RecordResponse(h poker.Hand, b poker.Bet, r poker.Response) error {
	if err := c.check(h, b); err != nil {
		return err
	}
	if !r.Valid() {
		return fmt.Errorf("%w: %d", poker.ErrInvalidResponse, r)
	}
	c.responses[h][b][r]++
	return nil
}

// BetCount returns the raw count for player one betting b with h.
func (c *Counts) BetCount(h poker.Hand, b poker.Bet) (float64, error) {
	if err := c.check(h, b); err != nil {
		return 0, err
	}
	return c.bets[h][b], nil
}

// ResponseCount returns the raw count for player two answering b with r
// holding h.
func (c *Counts) ResponseCount(h poker.Hand, b poker.Bet, r poker.Response) (float64, error) {
	if err := c.check(h, b); err != nil {
		return 0, err
	}
	if !r.Valid() {
		return 0, fmt.Errorf("%w: %d", poker.ErrInvalidResponse, r)
	}
	return c.responses[h][b][r], nil
}

// BetDistribution returns player one's empirical bet distribution for h.
func (c *Counts) BetDistribution(h poker.Hand) ([]float64, error) {
	if err := poker.CheckHand(h, c.strengths); err != nil {
		return nil, err
	}
	row := c.bets[h]
	total := 0.0
	for _, v := range row {
		total += v
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: player one hand %d", ErrDegenerateCounts, h)
	}
	dist := make([]float64, len(row))
	for i, v := range row {
		dist[i] = v / total
	}
	return dist, nil
}

// ResponseDistribution returns player two's empirical response distribution
// for h facing b, indexed by poker.Response.
func (c *Counts) ResponseDistribution(h poker.Hand, b poker.Bet) ([poker.NumResponses]float64, error) {
	var dist [poker.NumResponses]float64
	if err := c.check(h, b); err != nil {
		return dist, err
	}
	cell := c.responses[h][b]
	total := cell[poker.Fold] + cell[poker.Call]
	if total <= 0 {
		return dist, fmt.Errorf("%w: player two hand %d facing %d", ErrDegenerateCounts, h, b)
	}
	dist[poker.Fold] = cell[poker.Fold] / total
	dist[poker.Call] = cell[poker.Call] / total
	return dist, nil
}

// CallProbability returns the empirical probability that player two calls b
// holding h.
func (c *Counts) CallProbability(h poker.Hand, b poker.Bet) (float64, error) {
	dist, err := c.ResponseDistribution(h, b)
	if err != nil {
		return 0, err
	}
	return dist[poker.Call], nil
}

// Visits returns how many times player two actually faced b holding h,
// excluding smoothing.
func (c *Counts) Visits(h poker.Hand, b poker.Bet) (float64, error) {
	if err := c.check(h, b); err != nil {
		return 0, err
	}
	cell := c.responses[h][b]
	return cell[poker.Fold] + cell[poker.Call] - poker.NumResponses*c.smoothing, nil
}

// Clone returns a deep copy.
func (c *Counts) Clone() *Counts {
	out := &Counts{
		strengths: c.strengths,
		smoothing: c.smoothing,
		bets:      make([][]float64, c.strengths),
		responses: make([][][poker.NumResponses]float64, c.strengths),
	}
	for h := 0; h < c.strengths; h++ {
		out.bets[h] = append([]float64(nil), c.bets[h]...)
		out.responses[h] = append([][poker.NumResponses]float64(nil), c.responses[h]...)
	}
	return out
}

func (c *Counts) check(h poker.Hand, b poker.Bet) error {
	if err := poker.CheckHand(h, c.strengths); err != nil {
		return err
	}
	return poker.CheckBet(b, c.strengths)
}

type countsSnapshot struct {
	Strengths int                             `json:"strengths"`
	Smoothing float64                         `json:"smoothing"`
	Bets      [][]float64                     `json:"bets"`
	Responses [][][poker.NumResponses]float64 `json:"responses"`
}

func (c *Counts) snapshot() countsSnapshot {
	clone := c.Clone()
	return countsSnapshot{
		Strengths: clone.strengths,
		Smoothing: clone.smoothing,
		Bets:      clone.bets,
		Responses: clone.responses,
	}
}

// restoreCounts rebuilds a store from a snapshot, rejecting shapes or cells
// that would break the smoothing invariant.
func restoreCounts(snap countsSnapshot) (*Counts, error) {
	c, err := NewCounts(snap.Strengths, snap.Smoothing)
	if err != nil {
		return nil, err
	}
	if len(snap.Bets) != c.strengths || len(snap.Responses) != c.strengths {
		return nil, fmt.Errorf("%w: snapshot has %d/%d rows, want %d", ErrDegenerateCounts,
			len(snap.Bets), len(snap.Responses), c.strengths)
	}
	for h := 0; h < c.strengths; h++ {
		if len(snap.Bets[h]) != c.strengths || len(snap.Responses[h]) != c.strengths {
			return nil, fmt.Errorf("%w: snapshot row %d has wrong width", ErrDegenerateCounts, h)
		}
		for b := 0; b < c.strengths; b++ {
			if snap.Bets[h][b] < c.smoothing {
				return nil, fmt.Errorf("%w: bet cell %d/%d below smoothing", ErrDegenerateCounts, h, b)
			}
			c.bets[h][b] = snap.Bets[h][b]
			for r, v := range snap.Responses[h][b] {
				if v < c.smoothing {
					return nil, fmt.Errorf("%w: response cell %d/%d/%d below smoothing", ErrDegenerateCounts, h, b, r)
				}
				c.responses[h][b][r] = v
			}
		}
	}
	return c, nil
}
