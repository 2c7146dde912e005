package infer

import (
	"context"
	"fmt"
)

// PWMModel scores sequences with a bank of position weight matrices and a
// linear per-cell readout: each motif contributes its best-window match
// score, each cell activity is readout·features + bias.
type PWMModel struct {
	artifact Artifact
	path     string
	index    [256]int
}

func NewPWMModel(artifact Artifact) (*PWMModel, error) {
	if err := validateArtifact(artifact); err != nil {
		return nil, err
	}
	m := &PWMModel{artifact: artifact}
	for i := range m.index {
		m.index[i] = -1
	}
	for i := 0; i < len(artifact.Alphabet); i++ {
		m.index[artifact.Alphabet[i]] = i
	}
	return m, nil
}

func (m *PWMModel) Cells() int {
	return len(m.artifact.Cells)
}

func (m *PWMModel) Alphabet() string {
	return m.artifact.Alphabet
}

// Predict scores the whole batch in one call. Sequence validation happens
// before any scoring so a malformed batch never yields partial output.
func (m *PWMModel) Predict(ctx context.Context, sequences []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, seq := range sequences {
		if len(seq) != m.artifact.Length {
			return nil, fmt.Errorf("%w: sequence %d has length %d, model expects %d", ErrModelInference, i, len(seq), m.artifact.Length)
		}
		for pos := 0; pos < len(seq); pos++ {
			if m.index[seq[pos]] < 0 {
				return nil, fmt.Errorf("%w: sequence %d has symbol %q outside alphabet %q", ErrModelInference, i, seq[pos], m.artifact.Alphabet)
			}
		}
	}

	out := make([][]float64, len(sequences))
	features := make([]float64, len(m.artifact.Motifs))
	for i, seq := range sequences {
		for f, motif := range m.artifact.Motifs {
			features[f] = m.bestWindow(seq, motif)
		}
		activities := make([]float64, len(m.artifact.Cells))
		for c, row := range m.artifact.Readout {
			total := m.artifact.Bias[c]
			for f, weight := range row {
				total += weight * features[f]
			}
			activities[c] = total
		}
		out[i] = activities
	}
	return out, nil
}

func (m *PWMModel) bestWindow(seq string, motif Motif) float64 {
	width := len(motif.Weights)
	best := 0.0
	for start := 0; start+width <= len(seq); start++ {
		score := 0.0
		for pos := 0; pos < width; pos++ {
			score += motif.Weights[pos][m.index[seq[start+pos]]]
		}
		if start == 0 || score > best {
			best = score
		}
	}
	return best
}
