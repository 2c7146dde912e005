package seq

import (
	"math/rand"
)

// BasicParams keeps a hard one-hot batch: every position is exactly one
// symbol index, and proposals resample perturbed positions uniformly over
// the other symbols.
type BasicParams struct {
	cfg       Config
	current   [][]byte
	prev      [][]byte
	positions []int
}

func NewBasicParams(cfg Config) (*BasicParams, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &BasicParams{
		cfg:       cfg,
		current:   make([][]byte, cfg.BatchSize),
		prev:      make([][]byte, cfg.BatchSize),
		positions: make([]int, cfg.NPositions),
	}
	for i := range p.current {
		p.current[i] = make([]byte, cfg.Length)
		p.prev[i] = make([]byte, cfg.Length)
	}
	return p, nil
}

func (p *BasicParams) Name() string     { return "basic" }
func (p *BasicParams) BatchSize() int   { return p.cfg.BatchSize }
func (p *BasicParams) Length() int      { return p.cfg.Length }
func (p *BasicParams) Alphabet() string { return p.cfg.Alphabet }

func (p *BasicParams) Init(rng *rand.Rand) {
	channels := len(p.cfg.Alphabet)
	for i := range p.current {
		for pos := range p.current[i] {
			p.current[i][pos] = byte(rng.Intn(channels))
		}
		copy(p.prev[i], p.current[i])
	}
}

func (p *BasicParams) Propose(rng *rand.Rand) {
	channels := len(p.cfg.Alphabet)
	for i := range p.current {
		copy(p.prev[i], p.current[i])
		drawPositions(rng, p.positions, p.cfg.Length, p.cfg.Disjoint)
		for _, pos := range p.positions {
			// Uniform over the other symbols so a perturbed position
			// always changes.
			next := byte(rng.Intn(channels - 1))
			if next >= p.current[i][pos] {
				next++
			}
			p.current[i][pos] = next
		}
	}
}

func (p *BasicParams) Revert(i int) {
	copy(p.current[i], p.prev[i])
}

func (p *BasicParams) Decode() []string {
	out := make([]string, len(p.current))
	buf := make([]byte, p.cfg.Length)
	for i, candidate := range p.current {
		for pos, channel := range candidate {
			buf[pos] = p.cfg.Alphabet[channel]
		}
		out[i] = string(buf)
	}
	return out
}
