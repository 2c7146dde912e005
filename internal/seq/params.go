package seq

import (
	"fmt"
	"math/rand"

	"seqforge/internal/model"
)

// Params owns a batch of candidate sequences in a perturbable
// representation. A Propose call perturbs every candidate in place and
// remembers the prior state so individual candidates can be reverted when
// the controller rejects their move.
type Params interface {
	Name() string
	BatchSize() int
	Length() int
	Alphabet() string

	// Init replaces the batch with fresh uniform random candidates.
	Init(rng *rand.Rand)
	// Propose perturbs NPositions symbols in every candidate.
	Propose(rng *rand.Rand)
	// Revert restores candidate i to its state before the last Propose.
	Revert(i int)
	// Decode yields the concrete symbol sequences of the current batch,
	// exactly one active channel per position.
	Decode() []string
}

// Config is the shared parameterization configuration.
type Config struct {
	BatchSize  int
	Length     int
	Alphabet   string
	NPositions int
	// Disjoint draws perturbation positions without replacement.
	Disjoint bool
	// BiasChannel and BiasAlpha weight one symbol channel in the proposal
	// distribution; only the weighted variant consumes them.
	BiasChannel int
	BiasAlpha   float64
}

func (c Config) validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0, got %d", model.ErrInvalidConfiguration, c.BatchSize)
	}
	if c.Length <= 0 {
		return fmt.Errorf("%w: length must be > 0, got %d", model.ErrInvalidConfiguration, c.Length)
	}
	if len(c.Alphabet) < 2 {
		return fmt.Errorf("%w: alphabet needs at least 2 symbols, got %q", model.ErrInvalidConfiguration, c.Alphabet)
	}
	if c.NPositions <= 0 {
		return fmt.Errorf("%w: n_positions must be > 0, got %d", model.ErrInvalidConfiguration, c.NPositions)
	}
	if c.NPositions > c.Length {
		return fmt.Errorf("%w: n_positions %d exceeds length %d", model.ErrInvalidConfiguration, c.NPositions, c.Length)
	}
	if c.BiasChannel < 0 || c.BiasChannel >= len(c.Alphabet) {
		return fmt.Errorf("%w: bias channel %d out of range for alphabet %q", model.ErrInvalidConfiguration, c.BiasChannel, c.Alphabet)
	}
	return nil
}

// drawPositions fills dst with perturbation positions, disjoint or with
// replacement as configured.
func drawPositions(rng *rand.Rand, dst []int, length int, disjoint bool) {
	if !disjoint {
		for i := range dst {
			dst[i] = rng.Intn(length)
		}
		return
	}
	// Partial Fisher-Yates over [0, length).
	perm := rng.Perm(length)
	copy(dst, perm[:len(dst)])
}
