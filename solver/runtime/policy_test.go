package runtime

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/lox/fictitiousplay/internal/randutil"
	"github.com/lox/fictitiousplay/poker"
	"github.com/lox/fictitiousplay/solver"
)

func testStrategy(t *testing.T) *solver.Strategy {
	t.Helper()
	counts, err := solver.NewCounts(3, 0.01)
	if err != nil {
		t.Fatalf("new counts: %v", err)
	}
	for i := 0; i < 100; i++ {
		if err := counts.RecordBet(2, 2); err != nil {
			t.Fatalf("record bet: %v", err)
		}
		if err := counts.RecordResponse(0, 2, poker.Fold); err != nil {
			t.Fatalf("record response: %v", err)
		}
		if err := counts.RecordResponse(2, 2, poker.Call); err != nil {
			t.Fatalf("record response: %v", err)
		}
	}
	s, err := solver.NewStrategy(counts)
	if err != nil {
		t.Fatalf("new strategy: %v", err)
	}
	return s
}

func diff(a, b float64) float64 {
	return math.Abs(a - b)
}

func TestPolicyNilErrors(t *testing.T) {
	var p *Policy
	if _, err := p.BetWeights(0); err == nil {
		t.Fatalf("expected error for nil policy")
	}
	if _, err := p.CallProbability(0, 0); err == nil {
		t.Fatalf("expected error for nil policy")
	}
	if _, err := p.BetBelief(0); err == nil {
		t.Fatalf("expected error for nil policy")
	}
	if p.Strategy() != nil || p.Strengths() != 0 {
		t.Fatalf("expected empty accessors on nil policy")
	}
}

func TestPolicyLoadRoundTrip(t *testing.T) {
	s := testStrategy(t)
	path := filepath.Join(t.TempDir(), "strategy.json")
	if err := s.Save(path); err != nil {
		t.Fatalf("save strategy: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if p.Strengths() != 3 {
		t.Fatalf("expected 3 strengths, got %d", p.Strengths())
	}

	weights, err := p.BetWeights(2)
	if err != nil {
		t.Fatalf("bet weights: %v", err)
	}
	if diff(weights[2], 100.01/100.03) > 1e-9 {
		t.Fatalf("unexpected bet weight %v", weights[2])
	}

	call, err := p.CallProbability(2, 2)
	if err != nil {
		t.Fatalf("call probability: %v", err)
	}
	if diff(call, 100.01/100.02) > 1e-9 {
		t.Fatalf("unexpected call probability %v", call)
	}

	belief, err := p.BetBelief(2)
	if err != nil {
		t.Fatalf("bet belief: %v", err)
	}
	if diff(belief[0], 1.0/3) > 1e-9 || diff(belief[2], 100.01/100.03) > 1e-9 {
		t.Fatalf("unexpected belief %v", belief)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPolicyNewValidates(t *testing.T) {
	s := testStrategy(t)
	s.Bets[1][0] = 2
	if _, err := New(s); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestPolicySampling(t *testing.T) {
	p, err := New(testStrategy(t))
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	rng := randutil.New(3)

	const draws = 5000
	bets := make([]int, 3)
	calls := 0
	folds := 0
	for i := 0; i < draws; i++ {
		b, err := p.SampleBet(1, rng)
		if err != nil {
			t.Fatalf("sample bet: %v", err)
		}
		bets[b]++

		r, err := p.SampleResponse(2, 2, rng)
		if err != nil {
			t.Fatalf("sample response: %v", err)
		}
		if r == poker.Call {
			calls++
		}
		r, err = p.SampleResponse(0, 2, rng)
		if err != nil {
			t.Fatalf("sample response: %v", err)
		}
		if r == poker.Fold {
			folds++
		}
	}

	// hand 1 has never bet, so its row is uniform
	for b, n := range bets {
		if math.Abs(float64(n)-draws/3.0) > 250 {
			t.Fatalf("bet %d drawn %d times, expected about %d", b, n, draws/3)
		}
	}
	if calls < draws-20 {
		t.Fatalf("expected nearly every draw to call, got %d", calls)
	}
	if folds < draws-20 {
		t.Fatalf("expected nearly every draw to fold, got %d", folds)
	}

	if _, err := p.SampleBet(3, rng); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}
