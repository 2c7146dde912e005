package anneal

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"seqforge/internal/model"
	"seqforge/internal/penalty"
	"seqforge/internal/seq"
)

// countEnergy is the synthetic evaluator E(seq) = count of symbol '1'
// minus offset, hard-clamped into [aMin, aMax].
type countEnergy struct {
	offset     float64
	aMin, aMax float64
}

func (e countEnergy) Name() string { return "count" }

func (e countEnergy) Score(_ context.Context, sequences []string) ([]float64, error) {
	out := make([]float64, len(sequences))
	for i, s := range sequences {
		v := float64(strings.Count(s, "1")) - e.offset
		if v > e.aMax {
			v = e.aMax
		}
		if v < e.aMin {
			v = e.aMin
		}
		out[i] = v
	}
	return out, nil
}

// constEnergy returns the same score for every candidate, so every
// proposal is a tie.
type constEnergy struct{ value float64 }

func (e constEnergy) Name() string { return "const" }

func (e constEnergy) Score(_ context.Context, sequences []string) ([]float64, error) {
	out := make([]float64, len(sequences))
	for i := range out {
		out[i] = e.value
	}
	return out, nil
}

// revertSpy wraps a Params and records Revert calls.
type revertSpy struct {
	seq.Params
	reverts int
}

func (s *revertSpy) Revert(i int) {
	s.reverts++
	s.Params.Revert(i)
}

func passAll(t *testing.T) penalty.Evaluator {
	t.Helper()
	p, err := penalty.Resolve("motif", penalty.Config{ScorePct: 1.0})
	if err != nil {
		t.Fatalf("resolve penalty: %v", err)
	}
	return p
}

func passNone(t *testing.T) penalty.Evaluator {
	t.Helper()
	p, err := penalty.Resolve("motif", penalty.Config{ScorePct: 0.0})
	if err != nil {
		t.Fatalf("resolve penalty: %v", err)
	}
	return p
}

func scenarioParams(t *testing.T) seq.Params {
	t.Helper()
	p, err := seq.Resolve("basic", seq.Config{
		BatchSize:  4,
		Length:     5,
		Alphabet:   "01",
		NPositions: 1,
	})
	if err != nil {
		t.Fatalf("resolve params: %v", err)
	}
	return p
}

func scenarioConfig(t *testing.T, seed int64) Config {
	t.Helper()
	return Config{
		Params:          scenarioParams(t),
		Energy:          countEnergy{offset: 2.5, aMin: -1, aMax: 1},
		Penalty:         passAll(t),
		Rand:            rand.New(rand.NewSource(seed)),
		Schedule:        Schedule{A: 1.0, B: 1.0, Gamma: 0.501},
		EnergyThreshold: 0.0,
		NSteps:          10,
		MaxAttempts:     3,
	}
}

func TestRoundAcceptsOnlyQualifyingSequences(t *testing.T) {
	ctrl, err := NewController(scenarioConfig(t, 42))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	result, err := ctrl.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if len(result.Accepted) == 0 {
		t.Fatal("expected accepted sequences")
	}
	for _, item := range result.Accepted {
		if ones := strings.Count(item.Sequence, "1"); ones < 3 {
			t.Fatalf("accepted %q with only %d of 5 positions set", item.Sequence, ones)
		}
		if item.Energy < 0.0 {
			t.Fatalf("accepted %q below threshold: %f", item.Sequence, item.Energy)
		}
	}
	if result.Exhausted && result.Shortfall != 4-len(result.Accepted) {
		t.Fatalf("inconsistent shortfall: %+v", result)
	}
}

func TestRoundExhaustsAfterFailedAttemptCycles(t *testing.T) {
	cfg := scenarioConfig(t, 42)
	// Threshold above the energy cap: no candidate can ever qualify.
	cfg.EnergyThreshold = 2.0
	ctrl, err := NewController(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	result, err := ctrl.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if !result.Exhausted {
		t.Fatal("expected exhausted round")
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempt cycles, got %d", result.Attempts)
	}
	if result.Steps != 30 {
		t.Fatalf("expected 30 total steps, got %d", result.Steps)
	}
	if len(result.Accepted) != 0 || result.Shortfall != 4 {
		t.Fatalf("expected empty set with shortfall 4: %+v", result)
	}
}

func TestRoundReproducibleUnderFixedSeed(t *testing.T) {
	run := func() Result {
		ctrl, err := NewController(scenarioConfig(t, 7))
		if err != nil {
			t.Fatalf("new controller: %v", err)
		}
		result, err := ctrl.Round(context.Background(), 4)
		if err != nil {
			t.Fatalf("round: %v", err)
		}
		return result
	}
	first, second := run(), run()
	if first.Attempts != second.Attempts || first.Steps != second.Steps {
		t.Fatalf("counters diverged: %+v vs %+v", first, second)
	}
	if len(first.Accepted) != len(second.Accepted) {
		t.Fatalf("accepted counts diverged: %d vs %d", len(first.Accepted), len(second.Accepted))
	}
	for i := range first.Accepted {
		if first.Accepted[i] != second.Accepted[i] {
			t.Fatalf("accepted entry %d diverged: %+v vs %+v", i, first.Accepted[i], second.Accepted[i])
		}
	}
}

func TestInitPassersHarvestedWithZeroSteps(t *testing.T) {
	cfg := scenarioConfig(t, 1)
	cfg.NSteps = 0
	cfg.MaxAttempts = 1
	// Every candidate passes at INIT.
	cfg.Energy = constEnergy{value: 1.0}
	ctrl, err := NewController(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	result, err := ctrl.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if result.Steps != 0 {
		t.Fatalf("no-op round must take zero steps, got %d", result.Steps)
	}
	if len(result.Accepted) != 4 || result.Exhausted {
		t.Fatalf("expected 4 INIT passers: %+v", result)
	}
}

func TestTiesNeverReverted(t *testing.T) {
	cfg := scenarioConfig(t, 3)
	spy := &revertSpy{Params: cfg.Params}
	cfg.Params = spy
	cfg.Energy = constEnergy{value: -1.0}
	cfg.EnergyThreshold = 0.0 // nothing qualifies, the walk just runs
	cfg.MaxAttempts = 1
	ctrl, err := NewController(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, err := ctrl.Round(context.Background(), 4); err != nil {
		t.Fatalf("round: %v", err)
	}
	if spy.reverts != 0 {
		t.Fatalf("equal-energy proposals must never be rejected, saw %d reverts", spy.reverts)
	}
}

func TestZeroTargetImmediateDone(t *testing.T) {
	ctrl, err := NewController(scenarioConfig(t, 1))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	result, err := ctrl.Round(context.Background(), 0)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if result.Attempts != 0 || result.Steps != 0 || result.Exhausted || len(result.Accepted) != 0 {
		t.Fatalf("expected immediate empty DONE: %+v", result)
	}
}

func TestPenaltyGateOverridesEnergy(t *testing.T) {
	cfg := scenarioConfig(t, 5)
	cfg.Energy = constEnergy{value: 1.0} // everything passes on energy
	cfg.Penalty = passNone(t)
	ctrl, err := NewController(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	result, err := ctrl.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if len(result.Accepted) != 0 || !result.Exhausted {
		t.Fatalf("score_pct=0.0 must reject everything: %+v", result)
	}
}

func TestAcceptedSetDeduplicates(t *testing.T) {
	// Length-1 binary candidates: only two distinct sequences exist, so a
	// target of 4 must exhaust with exactly those two accepted.
	params, err := seq.Resolve("basic", seq.Config{
		BatchSize:  4,
		Length:     1,
		Alphabet:   "01",
		NPositions: 1,
	})
	if err != nil {
		t.Fatalf("resolve params: %v", err)
	}
	cfg := Config{
		Params:          params,
		Energy:          constEnergy{value: 1.0},
		Penalty:         passAll(t),
		Rand:            rand.New(rand.NewSource(9)),
		Schedule:        Schedule{A: 1.0, B: 1.0, Gamma: 0.501},
		EnergyThreshold: 0.0,
		NSteps:          5,
		MaxAttempts:     2,
	}
	ctrl, err := NewController(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	result, err := ctrl.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if len(result.Accepted) != 2 {
		t.Fatalf("expected the 2 distinct sequences, got %d", len(result.Accepted))
	}
	if !result.Exhausted || result.Shortfall != 2 {
		t.Fatalf("expected exhaustion with shortfall 2: %+v", result)
	}
	if result.Accepted[0].Sequence == result.Accepted[1].Sequence {
		t.Fatal("accepted set contains a duplicate")
	}
}

func TestControllerValidation(t *testing.T) {
	base := scenarioConfig(t, 1)
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil params", func(c *Config) { c.Params = nil }},
		{"nil energy", func(c *Config) { c.Energy = nil }},
		{"nil penalty", func(c *Config) { c.Penalty = nil }},
		{"nil rand", func(c *Config) { c.Rand = nil }},
		{"negative steps", func(c *Config) { c.NSteps = -1 }},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"bad gamma", func(c *Config) { c.Schedule.Gamma = 0.5 }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if _, err := NewController(cfg); !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Fatalf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}
}

func TestNegativeTargetRejected(t *testing.T) {
	ctrl, err := NewController(scenarioConfig(t, 1))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, err := ctrl.Round(context.Background(), -1); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestResolveGenerator(t *testing.T) {
	cfg := scenarioConfig(t, 1)
	for _, name := range []string{"", "annealer"} {
		gen, err := Resolve(name, cfg)
		if err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
		if gen.Name() != "annealer" {
			t.Fatalf("unexpected generator: %s", gen.Name())
		}
	}
	if _, err := Resolve("nope", cfg); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}
