package penalty

// HomopolymerPenalty scores the longest single-symbol run relative to the
// sequence length: maxRun/(length+1), in [0,1). Long runs are synthesis
// and sequencing liabilities.
type HomopolymerPenalty struct {
	gate
}

func NewHomopolymerPenalty(cfg Config) (*HomopolymerPenalty, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &HomopolymerPenalty{gate: gate{scorePct: cfg.ScorePct}}, nil
}

func (p *HomopolymerPenalty) Name() string { return "homopolymer" }

func (p *HomopolymerPenalty) Score(sequences []string) []float64 {
	out := make([]float64, len(sequences))
	for i, seq := range sequences {
		maxRun, run := 0, 0
		for pos := 0; pos < len(seq); pos++ {
			if pos > 0 && seq[pos] == seq[pos-1] {
				run++
			} else {
				run = 1
			}
			if run > maxRun {
				maxRun = run
			}
		}
		out[i] = float64(maxRun) / float64(len(seq)+1)
	}
	return out
}
