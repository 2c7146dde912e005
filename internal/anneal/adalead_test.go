package anneal

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"seqforge/internal/model"
)

func adaLeadConfig(t *testing.T, seed int64) Config {
	t.Helper()
	return Config{
		Params:          scenarioParams(t),
		Energy:          countEnergy{offset: 2.5, aMin: -1, aMax: 1},
		Penalty:         passAll(t),
		Rand:            rand.New(rand.NewSource(seed)),
		EnergyThreshold: 0.0,
		NSteps:          10,
		MaxAttempts:     3,
	}
}

func TestAdaLeadAcceptsOnlyQualifyingSequences(t *testing.T) {
	gen, err := NewAdaLead(adaLeadConfig(t, 42))
	if err != nil {
		t.Fatalf("new adalead: %v", err)
	}
	result, err := gen.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if len(result.Accepted) == 0 {
		t.Fatal("expected accepted sequences")
	}
	distinct := make(map[string]struct{}, len(result.Accepted))
	for _, item := range result.Accepted {
		if ones := strings.Count(item.Sequence, "1"); ones < 3 {
			t.Fatalf("accepted %q with only %d of 5 positions set", item.Sequence, ones)
		}
		if item.Energy < 0.0 {
			t.Fatalf("accepted %q below threshold: %f", item.Sequence, item.Energy)
		}
		if _, dup := distinct[item.Sequence]; dup {
			t.Fatalf("accepted set contains %q twice", item.Sequence)
		}
		distinct[item.Sequence] = struct{}{}
	}
	if result.Exhausted && result.Shortfall != 4-len(result.Accepted) {
		t.Fatalf("inconsistent shortfall: %+v", result)
	}
}

func TestAdaLeadExhaustsWhenThresholdUnreachable(t *testing.T) {
	cfg := adaLeadConfig(t, 42)
	// Threshold above the energy cap: no candidate can ever qualify.
	cfg.EnergyThreshold = 2.0
	gen, err := NewAdaLead(cfg)
	if err != nil {
		t.Fatalf("new adalead: %v", err)
	}
	result, err := gen.Round(context.Background(), 4)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if !result.Exhausted {
		t.Fatal("expected exhausted round")
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempt cycles, got %d", result.Attempts)
	}
	if result.Steps == 0 {
		t.Fatal("expected scored generations before exhaustion")
	}
	if len(result.Accepted) != 0 || result.Shortfall != 4 {
		t.Fatalf("expected empty set with shortfall 4: %+v", result)
	}
}

func TestAdaLeadReproducibleUnderFixedSeed(t *testing.T) {
	run := func() Result {
		gen, err := NewAdaLead(adaLeadConfig(t, 7))
		if err != nil {
			t.Fatalf("new adalead: %v", err)
		}
		result, err := gen.Round(context.Background(), 4)
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

func TestAdaLeadZeroStepsHarvestsInitOnly(t *testing.T) {
	cfg := adaLeadConfig(t, 1)
	cfg.NSteps = 0
	cfg.MaxAttempts = 1
	// Every candidate passes at INIT.
	cfg.Energy = constEnergy{value: 1.0}
	gen, err := NewAdaLead(cfg)
	if err != nil {
		t.Fatalf("new adalead: %v", err)
	}
	result, err := gen.Round(context.Background(), 4)
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

func TestAdaLeadZeroTargetImmediateDone(t *testing.T) {
	gen, err := NewAdaLead(adaLeadConfig(t, 1))
	if err != nil {
		t.Fatalf("new adalead: %v", err)
	}
	result, err := gen.Round(context.Background(), 0)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if result.Attempts != 0 || result.Steps != 0 || result.Exhausted || len(result.Accepted) != 0 {
		t.Fatalf("expected immediate empty DONE: %+v", result)
	}
}

func TestAdaLeadValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil params", func(c *Config) { c.Params = nil }},
		{"nil energy", func(c *Config) { c.Energy = nil }},
		{"nil rand", func(c *Config) { c.Rand = nil }},
		{"negative steps", func(c *Config) { c.NSteps = -1 }},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
	}
	for _, tc := range cases {
		cfg := adaLeadConfig(t, 1)
		tc.mutate(&cfg)
		if _, err := NewAdaLead(cfg); !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Fatalf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}
}

func TestResolveAdaLead(t *testing.T) {
	gen, err := Resolve("adalead", adaLeadConfig(t, 1))
	if err != nil {
		t.Fatalf("resolve adalead: %v", err)
	}
	if gen.Name() != "adalead" {
		t.Fatalf("unexpected generator: %s", gen.Name())
	}
}
