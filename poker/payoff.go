package poker

import "fmt"

// Payoff returns player one's winnings for a finished hand.
//
// A fold concedes half the pot to player one regardless of hands and bet.
// A call goes to showdown: the stronger hand wins the bet plus half the pot,
// equal hands split and nobody wins anything.
func Payoff(p1Hand Hand, p1Bet Bet, p2Hand Hand, p2Response Response, pot float64) (float64, error) {
	switch p2Response {
	case Fold:
		return pot / 2, nil
	case Call:
		stake := float64(p1Bet) + pot/2
		switch {
		case p1Hand > p2Hand:
			return stake, nil
		case p1Hand < p2Hand:
			return -stake, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidResponse, p2Response)
	}
}

// PayoffToP2 is the zero-sum complement of Payoff.
func PayoffToP2(p1Hand Hand, p1Bet Bet, p2Hand Hand, p2Response Response, pot float64) (float64, error) {
	v, err := Payoff(p1Hand, p1Bet, p2Hand, p2Response, pot)
	if err != nil {
		return 0, err
	}
	return -v, nil
}
