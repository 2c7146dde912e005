package penalty

import (
	"fmt"
	"strings"

	"seqforge/internal/model"
)

// Restriction sites that interfere with downstream cloning of designed
// sequences; screened out by default.
var defaultMotifs = []string{
	"GGTACC", // KpnI
	"GAATTC", // EcoRI
	"GGATCC", // BamHI
	"TCTAGA", // XbaI
}

// MotifPenalty counts occurrences of undesired motifs. The score is
// hits/(hits+1): zero for a clean sequence, approaching 1 as hits
// accumulate, never reaching it.
type MotifPenalty struct {
	gate
	motifs []string
}

func NewMotifPenalty(cfg Config) (*MotifPenalty, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	motifs := cfg.Motifs
	if len(motifs) == 0 {
		motifs = defaultMotifs
	}
	for _, motif := range motifs {
		if motif == "" {
			return nil, fmt.Errorf("%w: empty motif", model.ErrInvalidConfiguration)
		}
	}
	return &MotifPenalty{
		gate:   gate{scorePct: cfg.ScorePct},
		motifs: motifs,
	}, nil
}

func (p *MotifPenalty) Name() string { return "motif" }

func (p *MotifPenalty) Score(sequences []string) []float64 {
	out := make([]float64, len(sequences))
	for i, seq := range sequences {
		hits := 0
		for _, motif := range p.motifs {
			hits += countOverlapping(seq, motif)
		}
		out[i] = float64(hits) / float64(hits+1)
	}
	return out
}

func countOverlapping(seq, motif string) int {
	count := 0
	for start := 0; ; start++ {
		idx := strings.Index(seq[start:], motif)
		if idx < 0 {
			return count
		}
		count++
		start += idx
	}
}
