package penalty

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"seqforge/internal/model"
)

var (
	ErrVariantExists   = errors.New("penalty variant already registered")
	ErrVariantNotFound = errors.New("penalty variant not found")
)

// Evaluator computes an auxiliary screening score per sequence,
// independent of the energy model. Scores live in [0,1) and higher means
// worse; Passes gates them against the score_pct threshold.
type Evaluator interface {
	Name() string
	Score(sequences []string) []float64
	Passes(score float64) bool
}

// Config carries the gate threshold and the motif set shared by variants.
type Config struct {
	// ScorePct is the pass boundary: a candidate passes when its penalty
	// score is strictly below it. 1.0 always passes, 0.0 never does.
	ScorePct float64
	Motifs   []string
}

func (c Config) validate() error {
	if c.ScorePct < 0 || c.ScorePct > 1 {
		return fmt.Errorf("%w: score_pct %f outside [0,1]", model.ErrInvalidConfiguration, c.ScorePct)
	}
	return nil
}

type gate struct {
	scorePct float64
}

func (g gate) Passes(score float64) bool {
	return score < g.scorePct
}

// Factory builds a penalty evaluator variant.
type Factory func(cfg Config) (Evaluator, error)

var penaltyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("penalty variant name is required")
	}
	if factory == nil {
		return errors.New("penalty factory is required")
	}
	penaltyRegistry.mu.Lock()
	defer penaltyRegistry.mu.Unlock()
	if _, exists := penaltyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariantExists, name)
	}
	penaltyRegistry.m[name] = factory
	return nil
}

// Resolve builds the named variant. The empty tag resolves to motif.
func Resolve(name string, cfg Config) (Evaluator, error) {
	if name == "" {
		name = "motif"
	}
	penaltyRegistry.mu.RLock()
	factory, ok := penaltyRegistry.m[name]
	penaltyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, name)
	}
	return factory(cfg)
}

func ListVariants() []string {
	penaltyRegistry.mu.RLock()
	defer penaltyRegistry.mu.RUnlock()
	names := make([]string, 0, len(penaltyRegistry.m))
	for name := range penaltyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	_ = Register("motif", func(cfg Config) (Evaluator, error) { return NewMotifPenalty(cfg) })
	_ = Register("homopolymer", func(cfg Config) (Evaluator, error) { return NewHomopolymerPenalty(cfg) })
}
