package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/fictitiousplay/internal/randutil"
	"github.com/lox/fictitiousplay/internal/statistics"
	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver"
)

// Config holds configuration for running simulations. The hero always sits
// in the responding seat.
type Config struct {
	Hands  int
	Game   poker.Game
	Seed   int64
	Actual Opponent // how the opponent really bets
	Belief Opponent // what the hero assumes; nil means Actual
	Logger *log.Logger
}

// Simulator plays a best-responding hero against a fixed betting opponent.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	if config.Belief == nil {
		config.Belief = config.Actual
	}
	if config.Seed == 0 {
		config.Seed = randutil.TimeSeed()
	}
	return &Simulator{config: config}
}

func (s *Simulator) validate() error {
	if s.config.Hands <= 0 {
		return errors.New("hands must be > 0")
	}
	if err := s.config.Game.Validate(); err != nil {
		return err
	}
	if s.config.Actual == nil {
		return errors.New("opponent is required")
	}
	k := s.config.Game.Strengths
	if s.config.Actual.Strengths() != k || s.config.Belief.Strengths() != k {
		return fmt.Errorf("opponent tables must cover %d strengths", k)
	}
	return nil
}

// Run executes the simulation and returns the hero's statistics along with a
// description of the matchup.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, string, error) {
	if err := s.validate(); err != nil {
		return nil, "", err
	}

	info := s.config.Actual.Name()
	if s.config.Belief.Name() != info {
		info = fmt.Sprintf("%s (believed %s)", info, s.config.Belief.Name())
	}

	rng := randutil.New(s.config.Seed)
	dealer := poker.NewDealer(s.config.Game.Strengths, rng)
	stats := &statistics.Statistics{}

	for hand := 0; hand < s.config.Hands; hand++ {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}

		result, err := s.playHand(dealer, rng)
		if err != nil {
			return nil, "", fmt.Errorf("hand %d: %w", hand+1, err)
		}
		stats.Add(result)
	}

	if err := stats.Validate(); err != nil {
		return nil, "", fmt.Errorf("statistics validation failed: %w", err)
	}

	s.config.Logger.Debug("simulation complete",
		"opponent", info,
		"hands", stats.Hands,
		"avg", stats.Mean(),
		"showdown_rate", stats.ShowdownRate())
	return stats, info, nil
}

// playHand deals the opponent then the hero, lets the opponent bet, and has
// the hero respond to its belief about the opponent's table.
func (s *Simulator) playHand(dealer *poker.Dealer, rng *rand.Rand) (statistics.HandResult, error) {
	pot := s.config.Game.Pot()
	oppHand, heroHand := dealer.Deal()

	bet, err := s.config.Actual.Bet(oppHand, rng)
	if err != nil {
		return statistics.HandResult{}, err
	}
	response, err := s.respond(heroHand, bet, pot)
	if err != nil {
		return statistics.HandResult{}, err
	}
	payoff, err := poker.PayoffToP2(oppHand, bet, heroHand, response, pot)
	if err != nil {
		return statistics.HandResult{}, err
	}
	return statistics.HandResult{Payoff: payoff, Showdown: response == poker.Call}, nil
}

func (s *Simulator) respond(hand poker.Hand, bet poker.Bet, pot float64) (poker.Response, error) {
	weights, err := s.config.Belief.Belief(bet)
	if err != nil {
		return poker.Fold, err
	}
	r, err := solver.BestResponseToBelief(hand, pot, bet, weights)
	if errors.Is(err, solver.ErrDegenerateCounts) {
		// the believed table never makes this bet
		return poker.Fold, nil
	}
	return r, err
}

// RunSimulation is a convenience wrapper for a named built-in opponent that
// the hero models correctly.
func RunSimulation(ctx context.Context, hands int, opponent string, seed int64, logger *log.Logger) (*statistics.Statistics, string, error) {
	game := poker.DefaultGame()
	opp, err := OpponentByName(opponent, game.Strengths)
	if err != nil {
		return nil, "", err
	}
	return New(Config{
		Hands:  hands,
		Game:   game,
		Seed:   seed,
		Actual: opp,
		Logger: logger,
	}).Run(ctx)
}
