package energy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"seqforge/internal/infer"
	"seqforge/internal/model"
)

var (
	ErrVariantExists   = errors.New("energy variant already registered")
	ErrVariantNotFound = errors.New("energy variant not found")
)

// Evaluator maps decoded sequences to one ceiling-reduced scalar per
// candidate; higher is better. Implementations batch model calls and never
// score one candidate at a time.
type Evaluator interface {
	Name() string
	Score(ctx context.Context, sequences []string) ([]float64, error)
}

// Config carries the reduction knobs shared by all evaluator variants.
type Config struct {
	BatchSize int
	BiasCell  int
	BiasAlpha float64
	AMin      float64
	AMax      float64
	// BendingFactor in [0,1] sets how far below AMax compression starts;
	// 0 is a hard clamp at AMax.
	BendingFactor float64
}

func (c Config) validate(cells int) error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0, got %d", model.ErrInvalidConfiguration, c.BatchSize)
	}
	if c.BiasCell < 0 || c.BiasCell >= cells {
		return fmt.Errorf("%w: bias_cell %d out of range for %d cells", model.ErrInvalidConfiguration, c.BiasCell, cells)
	}
	if !(c.AMin < c.AMax) {
		return fmt.Errorf("%w: a_min %f must be below a_max %f", model.ErrInvalidConfiguration, c.AMin, c.AMax)
	}
	if c.BendingFactor < 0 || c.BendingFactor > 1 {
		return fmt.Errorf("%w: bending_factor %f outside [0,1]", model.ErrInvalidConfiguration, c.BendingFactor)
	}
	return nil
}

// ceiling applies the saturating reduction: values above the knee are
// compressed toward AMax instead of discarded, the result is floored at
// AMin, and degenerate raw scores saturate to AMin.
func (c Config) ceiling(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return c.AMin
	}
	knee := c.AMax - c.BendingFactor*(c.AMax-c.AMin)
	switch {
	case c.AMax > knee && v > knee:
		v = knee + (c.AMax-knee)*math.Tanh((v-knee)/(c.AMax-knee))
	case v > c.AMax:
		v = c.AMax
	}
	if v < c.AMin {
		return c.AMin
	}
	return v
}

// scoreChunked runs the predictor over batch_size chunks and reduces each
// activity vector with reduce, then applies the ceiling.
func scoreChunked(ctx context.Context, p infer.Predictor, cfg Config, sequences []string, reduce func([]float64) float64) ([]float64, error) {
	out := make([]float64, 0, len(sequences))
	cells := p.Cells()
	for start := 0; start < len(sequences); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(sequences) {
			end = len(sequences)
		}
		activities, err := p.Predict(ctx, sequences[start:end])
		if err != nil {
			return nil, err
		}
		if len(activities) != end-start {
			return nil, fmt.Errorf("%w: predictor returned %d rows for %d sequences", infer.ErrModelInference, len(activities), end-start)
		}
		for _, row := range activities {
			if len(row) != cells {
				return nil, fmt.Errorf("%w: predictor returned %d cells, expected %d", infer.ErrModelInference, len(row), cells)
			}
			out = append(out, cfg.ceiling(reduce(row)))
		}
	}
	return out, nil
}

// Factory builds an evaluator variant around a loaded predictor.
type Factory func(cfg Config, p infer.Predictor) (Evaluator, error)

var energyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("energy variant name is required")
	}
	if factory == nil {
		return errors.New("energy factory is required")
	}
	energyRegistry.mu.Lock()
	defer energyRegistry.mu.Unlock()
	if _, exists := energyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariantExists, name)
	}
	energyRegistry.m[name] = factory
	return nil
}

// Resolve builds the named variant. The empty tag resolves to overmax.
func Resolve(name string, cfg Config, p infer.Predictor) (Evaluator, error) {
	if name == "" {
		name = "overmax"
	}
	energyRegistry.mu.RLock()
	factory, ok := energyRegistry.m[name]
	energyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, name)
	}
	return factory(cfg, p)
}

func ListVariants() []string {
	energyRegistry.mu.RLock()
	defer energyRegistry.mu.RUnlock()
	names := make([]string, 0, len(energyRegistry.m))
	for name := range energyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	_ = Register("overmax", func(cfg Config, p infer.Predictor) (Evaluator, error) { return NewOverMax(cfg, p) })
	_ = Register("entropy", func(cfg Config, p infer.Predictor) (Evaluator, error) { return NewEntropy(cfg, p) })
}
