package seq

import (
	"math/rand"
)

// WeightedParams resamples perturbed positions from a channel-weighted
// proposal distribution: the configured bias channel carries BiasAlpha
// times the weight of the others. With BiasAlpha 1 it degenerates to the
// basic uniform proposal.
type WeightedParams struct {
	cfg        Config
	current    [][]byte
	prev       [][]byte
	positions  []int
	cumWeights []float64
}

func NewWeightedParams(cfg Config) (*WeightedParams, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	alpha := cfg.BiasAlpha
	if alpha <= 0 {
		alpha = 1.0
	}
	channels := len(cfg.Alphabet)
	cum := make([]float64, channels)
	total := 0.0
	for c := 0; c < channels; c++ {
		weight := 1.0
		if c == cfg.BiasChannel {
			weight = alpha
		}
		total += weight
		cum[c] = total
	}
	for c := range cum {
		cum[c] /= total
	}

	p := &WeightedParams{
		cfg:        cfg,
		current:    make([][]byte, cfg.BatchSize),
		prev:       make([][]byte, cfg.BatchSize),
		positions:  make([]int, cfg.NPositions),
		cumWeights: cum,
	}
	for i := range p.current {
		p.current[i] = make([]byte, cfg.Length)
		p.prev[i] = make([]byte, cfg.Length)
	}
	return p, nil
}

func (p *WeightedParams) Name() string     { return "weighted" }
func (p *WeightedParams) BatchSize() int   { return p.cfg.BatchSize }
func (p *WeightedParams) Length() int      { return p.cfg.Length }
func (p *WeightedParams) Alphabet() string { return p.cfg.Alphabet }

func (p *WeightedParams) Init(rng *rand.Rand) {
	for i := range p.current {
		for pos := range p.current[i] {
			p.current[i][pos] = p.drawChannel(rng)
		}
		copy(p.prev[i], p.current[i])
	}
}

func (p *WeightedParams) Propose(rng *rand.Rand) {
	for i := range p.current {
		copy(p.prev[i], p.current[i])
		drawPositions(rng, p.positions, p.cfg.Length, p.cfg.Disjoint)
		for _, pos := range p.positions {
			p.current[i][pos] = p.drawChannel(rng)
		}
	}
}

func (p *WeightedParams) Revert(i int) {
	copy(p.current[i], p.prev[i])
}

func (p *WeightedParams) Decode() []string {
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

func (p *WeightedParams) drawChannel(rng *rand.Rand) byte {
	u := rng.Float64()
	for c, cum := range p.cumWeights {
		if u < cum {
			return byte(c)
		}
	}
	return byte(len(p.cumWeights) - 1)
}
