package anneal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrVariantExists   = errors.New("generator variant already registered")
	ErrVariantNotFound = errors.New("generator variant not found")
)

// Generator is a search-algorithm variant: it drives one round toward its
// proposal target.
type Generator interface {
	Name() string
	Round(ctx context.Context, target int) (Result, error)
}

// Factory builds a generator variant from the shared round configuration.
type Factory func(cfg Config) (Generator, error)

var generatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("generator variant name is required")
	}
	if factory == nil {
		return errors.New("generator factory is required")
	}
	generatorRegistry.mu.Lock()
	defer generatorRegistry.mu.Unlock()
	if _, exists := generatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariantExists, name)
	}
	generatorRegistry.m[name] = factory
	return nil
}

// Resolve builds the named variant. The empty tag resolves to annealer.
func Resolve(name string, cfg Config) (Generator, error) {
	if name == "" {
		name = "annealer"
	}
	generatorRegistry.mu.RLock()
	factory, ok := generatorRegistry.m[name]
	generatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, name)
	}
	return factory(cfg)
}

func ListVariants() []string {
	generatorRegistry.mu.RLock()
	defer generatorRegistry.mu.RUnlock()
	names := make([]string, 0, len(generatorRegistry.m))
	for name := range generatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	_ = Register("annealer", func(cfg Config) (Generator, error) { return NewController(cfg) })
	_ = Register("adalead", func(cfg Config) (Generator, error) { return NewAdaLead(cfg) })
}
