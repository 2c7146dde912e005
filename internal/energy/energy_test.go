package energy

import (
	"context"
	"errors"
	"math"
	"testing"

	"seqforge/internal/infer"
	"seqforge/internal/model"
)

// stubPredictor returns canned activity rows keyed by sequence and records
// every Predict batch size.
type stubPredictor struct {
	cells      int
	rows       map[string][]float64
	batchSizes []int
}

func (s *stubPredictor) Cells() int       { return s.cells }
func (s *stubPredictor) Alphabet() string { return "ACGT" }

func (s *stubPredictor) Predict(_ context.Context, sequences []string) ([][]float64, error) {
	s.batchSizes = append(s.batchSizes, len(sequences))
	out := make([][]float64, len(sequences))
	for i, seq := range sequences {
		row, ok := s.rows[seq]
		if !ok {
			row = make([]float64, s.cells)
		}
		out[i] = row
	}
	return out, nil
}

func TestCeilingBounds(t *testing.T) {
	cfg := Config{BatchSize: 1, AMin: -2, AMax: 2}
	for _, v := range []float64{-100, -2.1, 0, 1.9, 2, 5, 1e12, math.Inf(1), math.Inf(-1), math.NaN()} {
		got := cfg.ceiling(v)
		if got < cfg.AMin || got > cfg.AMax {
			t.Fatalf("ceiling(%f) = %f outside [%f, %f]", v, got, cfg.AMin, cfg.AMax)
		}
	}
	if cfg.ceiling(math.NaN()) != cfg.AMin {
		t.Fatal("NaN must saturate to a_min")
	}
	if cfg.ceiling(math.Inf(1)) != cfg.AMin {
		t.Fatal("+Inf must saturate to a_min")
	}
	if cfg.ceiling(5) != cfg.AMax {
		t.Fatal("hard clamp expected with bending 0")
	}
	if cfg.ceiling(1.5) != 1.5 {
		t.Fatal("in-range values must pass through")
	}
}

func TestCeilingBendingCompresses(t *testing.T) {
	cfg := Config{BatchSize: 1, AMin: -1, AMax: 1, BendingFactor: 0.5}
	// Knee at 0: values above it are compressed but stay below a_max and
	// keep their ordering.
	low, high := cfg.ceiling(0.5), cfg.ceiling(3.0)
	if low >= high {
		t.Fatalf("bending must preserve ordering: %f >= %f", low, high)
	}
	if high >= cfg.AMax {
		t.Fatalf("bent value %f must stay below a_max", high)
	}
	if cfg.ceiling(-0.5) != -0.5 {
		t.Fatal("values below the knee must pass through")
	}
}

func TestOverMaxSpecificity(t *testing.T) {
	p := &stubPredictor{cells: 3, rows: map[string][]float64{
		"AAAA": {2.0, 0.5, 0.25}, // strong and specific
		"CCCC": {2.0, 1.9, 0.1},  // strong but promiscuous
	}}
	e, err := NewOverMax(Config{BatchSize: 4, BiasCell: 0, AMin: -10, AMax: 10}, p)
	if err != nil {
		t.Fatalf("new overmax: %v", err)
	}
	scores, err := e.Score(context.Background(), []string{"AAAA", "CCCC"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scores[0] != 1.5 {
		t.Fatalf("expected 2.0-0.5=1.5, got %f", scores[0])
	}
	if scores[1] >= scores[0] {
		t.Fatalf("promiscuous sequence must score lower: %f vs %f", scores[1], scores[0])
	}
}

func TestScoreChunksModelCalls(t *testing.T) {
	p := &stubPredictor{cells: 2, rows: map[string][]float64{}}
	e, err := NewOverMax(Config{BatchSize: 4, AMin: -1, AMax: 1}, p)
	if err != nil {
		t.Fatalf("new overmax: %v", err)
	}
	sequences := make([]string, 10)
	for i := range sequences {
		sequences[i] = "AAAA"
	}
	if _, err := e.Score(context.Background(), sequences); err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(p.batchSizes) != 3 || p.batchSizes[0] != 4 || p.batchSizes[1] != 4 || p.batchSizes[2] != 2 {
		t.Fatalf("expected chunked calls [4 4 2], got %v", p.batchSizes)
	}
}

func TestScoreNonFiniteSaturates(t *testing.T) {
	p := &stubPredictor{cells: 2, rows: map[string][]float64{
		"AAAA": {math.NaN(), 0},
		"CCCC": {math.Inf(1), math.Inf(1)},
		"GGGG": {1.0, 0.0},
	}}
	e, err := NewOverMax(Config{BatchSize: 8, BiasCell: 0, AMin: -3, AMax: 3}, p)
	if err != nil {
		t.Fatalf("new overmax: %v", err)
	}
	scores, err := e.Score(context.Background(), []string{"AAAA", "CCCC", "GGGG"})
	if err != nil {
		t.Fatalf("degenerate scores must not abort the batch: %v", err)
	}
	if scores[0] != -3 || scores[1] != -3 {
		t.Fatalf("non-finite scores must saturate to a_min: %v", scores)
	}
	if scores[2] != 1.0 {
		t.Fatalf("finite neighbor unaffected: %f", scores[2])
	}
}

func TestEntropyPrefersConcentratedActivity(t *testing.T) {
	p := &stubPredictor{cells: 3, rows: map[string][]float64{
		"AAAA": {4.0, -4.0, -4.0}, // concentrated on the bias cell
		"CCCC": {1.0, 1.0, 1.0},   // diffuse
	}}
	e, err := NewEntropy(Config{BatchSize: 4, BiasCell: 0, AMin: -10, AMax: 10}, p)
	if err != nil {
		t.Fatalf("new entropy: %v", err)
	}
	scores, err := e.Score(context.Background(), []string{"AAAA", "CCCC"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if scores[0] <= scores[1] {
		t.Fatalf("concentrated activity must outscore diffuse: %f vs %f", scores[0], scores[1])
	}
}

func TestEnergyConfigValidation(t *testing.T) {
	p := &stubPredictor{cells: 2}
	cases := []Config{
		{BatchSize: 0, AMin: -1, AMax: 1},
		{BatchSize: 1, BiasCell: 5, AMin: -1, AMax: 1},
		{BatchSize: 1, AMin: 1, AMax: 1},
		{BatchSize: 1, AMin: -1, AMax: 1, BendingFactor: 1.5},
	}
	for i, cfg := range cases {
		if _, err := NewOverMax(cfg, p); !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Fatalf("case %d: expected ErrInvalidConfiguration, got %v", i, err)
		}
	}
}

func TestResolveEnergyVariants(t *testing.T) {
	p := &stubPredictor{cells: 2}
	cfg := Config{BatchSize: 2, AMin: -1, AMax: 1}
	for _, name := range []string{"", "overmax", "entropy"} {
		if _, err := Resolve(name, cfg, p); err != nil {
			t.Fatalf("resolve %q: %v", name, err)
		}
	}
	if _, err := Resolve("nope", cfg, p); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
	variants := ListVariants()
	if len(variants) != 2 || variants[0] != "entropy" || variants[1] != "overmax" {
		t.Fatalf("unexpected variants: %v", variants)
	}
}

var _ infer.Predictor = (*stubPredictor)(nil)
