package solver

import (
	"context"
	"fmt"
	"io"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/fictitiousplay/internal/randutil"
	"github.com/lox/fictitiousplay/internal/statistics"
	"github.com/lox/fictitiousplay/poker"
)

// HandRecord describes one played hand.
type HandRecord struct {
	Index    int // 1-based position in the run
	P1Hand   poker.Hand
	P2Hand   poker.Hand
	Bet      poker.Bet
	Response poker.Response
	Payoff   float64 // to player one
}

// Progress is emitted periodically while a run is in flight.
type Progress struct {
	Hands          int
	TotalHands     int
	TotalPayoff    float64
	AveragePayoff  float64
	Elapsed        time.Duration
	HandsPerSecond float64
}

// TraceFunc observes hands in the trailing trace window. It must not retain
// or mutate trainer state.
type TraceFunc func(HandRecord)

// Option customises a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger used for lifecycle and checkpoint messages.
func WithLogger(logger *log.Logger) Option {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithClock sets the clock used for throughput and checkpoint intervals.
func WithClock(clock quartz.Clock) Option {
	return func(t *Trainer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithTrace installs a hook that sees every hand in the last
// Config.TraceWindow hands of the run.
func WithTrace(fn TraceFunc) Option {
	return func(t *Trainer) {
		t.trace = fn
	}
}

// Trainer runs fictitious play: every hand both players best-respond to the
// other's empirical history, and only then is the history extended with the
// hand's actions.
//
// A Trainer owns its counts and random source and is not safe for concurrent
// use. Run independent trainers in parallel with RunIndependent.
type Trainer struct {
	cfg    Config
	game   poker.Game
	counts *Counts
	src    *rand.PCG
	rng    *rand.Rand
	tieRNG *rand.Rand // nil unless TieBreakRandom
	dealer *poker.Dealer
	stats  statistics.Statistics
	hands  int

	clock  quartz.Clock
	logger *log.Logger
	trace  TraceFunc

	checkpointPath     string
	checkpointEvery    int
	checkpointInterval time.Duration
	lastCheckpoint     time.Time
}

// NewTrainer validates cfg and builds a trainer with smoothing-only counts.
// A zero seed is replaced by a time-derived one, recorded in Config().
func NewTrainer(cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = randutil.TimeSeed()
	}

	counts, err := NewCounts(cfg.Strengths, cfg.Smoothing)
	if err != nil {
		return nil, err
	}

	src := randutil.NewSource(cfg.Seed)
	rng := rand.New(src)
	t := &Trainer{
		cfg:    cfg,
		game:   cfg.Game(),
		counts: counts,
		src:    src,
		rng:    rng,
		dealer: poker.NewDealer(cfg.Strengths, rng),
		clock:  quartz.NewReal(),
		logger: log.New(io.Discard),
	}
	if cfg.TieBreak == TieBreakRandom {
		t.tieRNG = rng
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// PlayHand plays one hand: deal, player one bets against player two's
// history, player two responds against player one's history, score, and only
// then record both actions.
func (t *Trainer) PlayHand() (HandRecord, error) {
	p1Hand, p2Hand := t.dealer.Deal()
	pot := t.game.Pot()

	bet, err := bestBet(p1Hand, pot, t.counts, t.tieRNG)
	if err != nil {
		return HandRecord{}, fmt.Errorf("player one decision: %w", err)
	}
	response, err := bestResponse(p2Hand, pot, bet, t.counts, t.tieRNG)
	if err != nil {
		return HandRecord{}, fmt.Errorf("player two decision: %w", err)
	}
	payoff, err := poker.Payoff(p1Hand, bet, p2Hand, response, pot)
	if err != nil {
		return HandRecord{}, err
	}
	t.stats.Add(statistics.HandResult{Payoff: payoff, Showdown: response == poker.Call})

	if err := t.counts.RecordBet(p1Hand, bet); err != nil {
		return HandRecord{}, err
	}
	if err := t.counts.RecordResponse(p2Hand, bet, response); err != nil {
		return HandRecord{}, err
	}
	t.hands++

	return HandRecord{
		Index:    t.hands,
		P1Hand:   p1Hand,
		P2Hand:   p2Hand,
		Bet:      bet,
		Response: response,
		Payoff:   payoff,
	}, nil
}

// Run plays hands until Config().Hands have been played. Cancellation is
// observed between hands; a hand is never left half recorded.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	every := t.cfg.ProgressEvery
	if every <= 0 {
		every = max(t.cfg.Hands/100, 1)
	}
	traceFrom := t.cfg.Hands - t.cfg.TraceWindow
	startHands := t.hands
	start := t.clock.Now()
	t.lastCheckpoint = start

	t.logger.Debug("starting run", "hands", t.cfg.Hands, "resume_from", startHands, "seed", t.cfg.Seed)

	for t.hands < t.cfg.Hands {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := t.PlayHand()
		if err != nil {
			return fmt.Errorf("hand %d: %w", t.hands+1, err)
		}
		if t.trace != nil && rec.Index > traceFrom {
			t.trace(rec)
		}

		if progress != nil && t.hands%every == 0 {
			progress(t.progress(start, startHands))
		}
		if t.checkpointDue() {
			if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
				return err
			}
		}
	}

	if progress != nil && t.hands%every != 0 {
		progress(t.progress(start, startHands))
	}
	if t.checkpointPath != "" {
		if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
			return err
		}
	}

	t.logger.Debug("run complete",
		"hands", t.hands,
		"total_payoff", t.stats.Sum,
		"avg_payoff", t.stats.Mean(),
		"elapsed", t.clock.Since(start))
	return nil
}

func (t *Trainer) progress(start time.Time, startHands int) Progress {
	elapsed := t.clock.Since(start)
	p := Progress{
		Hands:         t.hands,
		TotalHands:    t.cfg.Hands,
		TotalPayoff:   t.stats.Sum,
		AveragePayoff: t.stats.Mean(),
		Elapsed:       elapsed,
	}
	if elapsed > 0 {
		p.HandsPerSecond = float64(t.hands-startHands) / elapsed.Seconds()
	}
	return p
}

func (t *Trainer) checkpointDue() bool {
	if t.checkpointPath == "" {
		return false
	}
	if t.checkpointEvery > 0 && t.hands%t.checkpointEvery == 0 {
		return true
	}
	return t.checkpointInterval > 0 && t.clock.Since(t.lastCheckpoint) >= t.checkpointInterval
}

// Config returns the trainer's configuration, including the resolved seed.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Hands returns how many hands have been played.
func (t *Trainer) Hands() int {
	return t.hands
}

// TotalPayoff returns player one's accumulated winnings.
func (t *Trainer) TotalPayoff() float64 {
	return t.stats.Sum
}

// AveragePayoff returns player one's winnings per hand.
func (t *Trainer) AveragePayoff() float64 {
	return t.stats.Mean()
}

// Stats returns a copy of the running payoff statistics for player one.
func (t *Trainer) Stats() statistics.Statistics {
	return t.stats
}

// Counts returns a deep copy of both count stores.
func (t *Trainer) Counts() *Counts {
	return t.counts.Clone()
}

// Strategy derives the normalised strategy tables from the current counts.
func (t *Trainer) Strategy() (*Strategy, error) {
	s, err := NewStrategy(t.counts)
	if err != nil {
		return nil, err
	}
	s.GeneratedAt = t.clock.Now().UTC()
	s.Hands = t.hands
	s.Config = t.cfg
	s.TotalPayoff = t.stats.Sum
	return s, nil
}

// SetTotalHands changes the run length, typically to extend a resumed run.
func (t *Trainer) SetTotalHands(n int) error {
	if n < t.hands {
		return fmt.Errorf("total hands %d less than completed %d", n, t.hands)
	}
	if n <= 0 {
		return fmt.Errorf("total hands must be > 0 (got %d)", n)
	}
	t.cfg.Hands = n
	return nil
}

// SetProgressEvery changes how often the progress callback fires.
func (t *Trainer) SetProgressEvery(n int) {
	if n < 0 {
		n = 0
	}
	t.cfg.ProgressEvery = n
}
