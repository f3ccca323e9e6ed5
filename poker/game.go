// Package poker defines the one-street, two-player betting game the solver
// learns: private hand strengths, player one's bet sizes, player two's
// fold/call response and the zero-sum payoff of a finished hand.
package poker

import (
	"errors"
	"fmt"
)

// Default game parameters match the ten-strength game with an ante of 2.
const (
	DefaultStrengths = 10
	DefaultAnte      = 2.0
)

var (
	ErrInvalidResponse = errors.New("invalid response")
	ErrHandOutOfRange  = errors.New("hand strength out of range")
	ErrBetOutOfRange   = errors.New("bet size out of range")
)

// Hand is a private hand strength in [0, Strengths). Hands are only ever
// compared against each other.
type Hand int

// Bet is player one's action and wager in [0, Strengths). Bet 0 is a check.
type Bet int

// Response is player two's answer to a bet.
type Response uint8

const (
	Fold Response = iota
	Call
)

// NumResponses is the number of Response variants.
const NumResponses = 2

// Responses lists every response in index order.
var Responses = [NumResponses]Response{Fold, Call}

func (r Response) String() string {
	switch r {
	case Fold:
		return "fold"
	case Call:
		return "call"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the declared variants.
func (r Response) Valid() bool {
	return r == Fold || r == Call
}

// ParseResponse converts "fold" or "call" to a Response.
func ParseResponse(s string) (Response, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "call":
		return Call, nil
	default:
		return Fold, fmt.Errorf("%w: %q", ErrInvalidResponse, s)
	}
}

// Game fixes the size of the hand and bet ranges and the ante.
type Game struct {
	Strengths int     `json:"strengths"`
	Ante      float64 `json:"ante"`
}

// DefaultGame returns the ten-strength game with an ante of 2.
func DefaultGame() Game {
	return Game{Strengths: DefaultStrengths, Ante: DefaultAnte}
}

// Validate ensures the game is well-formed.
func (g Game) Validate() error {
	if g.Strengths < 2 {
		return errors.New("strengths must be >= 2")
	}
	if g.Ante <= 0 {
		return errors.New("ante must be > 0")
	}
	return nil
}

// Pot is the pot at the start of every hand: both antes. The pending bet is
// never added to it.
func (g Game) Pot() float64 {
	return 2 * g.Ante
}

// CheckHand returns ErrHandOutOfRange when h is outside the game's range.
func (g Game) CheckHand(h Hand) error {
	return CheckHand(h, g.Strengths)
}

// CheckBet returns ErrBetOutOfRange when b is outside the game's range.
func (g Game) CheckBet(b Bet) error {
	return CheckBet(b, g.Strengths)
}

// Payoff scores a finished hand for player one after validating every input
// against the game's ranges.
func (g Game) Payoff(p1Hand Hand, p1Bet Bet, p2Hand Hand, p2Response Response) (float64, error) {
	if err := g.CheckHand(p1Hand); err != nil {
		return 0, fmt.Errorf("player one: %w", err)
	}
	if err := g.CheckHand(p2Hand); err != nil {
		return 0, fmt.Errorf("player two: %w", err)
	}
	if err := g.CheckBet(p1Bet); err != nil {
		return 0, err
	}
	return Payoff(p1Hand, p1Bet, p2Hand, p2Response, g.Pot())
}

// CheckHand returns ErrHandOutOfRange when h is outside [0, strengths).
func CheckHand(h Hand, strengths int) error {
	if h < 0 || int(h) >= strengths {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrHandOutOfRange, h, strengths)
	}
	return nil
}

// CheckBet returns ErrBetOutOfRange when b is outside [0, strengths).
func CheckBet(b Bet, strengths int) error {
	if b < 0 || int(b) >= strengths {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrBetOutOfRange, b, strengths)
	}
	return nil
}
