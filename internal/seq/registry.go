package seq

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrVariantExists   = errors.New("params variant already registered")
	ErrVariantNotFound = errors.New("params variant not found")
)

// Factory builds a Params variant from a shared configuration.
type Factory func(cfg Config) (Params, error)

var paramsRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("params variant name is required")
	}
	if factory == nil {
		return errors.New("params factory is required")
	}
	paramsRegistry.mu.Lock()
	defer paramsRegistry.mu.Unlock()
	if _, exists := paramsRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariantExists, name)
	}
	paramsRegistry.m[name] = factory
	return nil
}

// Resolve builds the named variant. The empty tag resolves to basic.
func Resolve(name string, cfg Config) (Params, error) {
	if name == "" {
		name = "basic"
	}
	paramsRegistry.mu.RLock()
	factory, ok := paramsRegistry.m[name]
	paramsRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, name)
	}
	return factory(cfg)
}

func ListVariants() []string {
	paramsRegistry.mu.RLock()
	defer paramsRegistry.mu.RUnlock()
	names := make([]string, 0, len(paramsRegistry.m))
	for name := range paramsRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	_ = Register("basic", func(cfg Config) (Params, error) { return NewBasicParams(cfg) })
	_ = Register("weighted", func(cfg Config) (Params, error) { return NewWeightedParams(cfg) })
}
