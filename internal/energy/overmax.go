package energy

import (
	"context"

	"seqforge/internal/infer"
)

// OverMax scores specificity toward the bias cell: the weighted bias-cell
// activity minus the strongest competing cell. A sequence only scores high
// when it activates the target cell and no other.
type OverMax struct {
	cfg       Config
	predictor infer.Predictor
}

func NewOverMax(cfg Config, p infer.Predictor) (*OverMax, error) {
	if err := cfg.validate(p.Cells()); err != nil {
		return nil, err
	}
	return &OverMax{cfg: cfg, predictor: p}, nil
}

func (e *OverMax) Name() string { return "overmax" }

func (e *OverMax) Score(ctx context.Context, sequences []string) ([]float64, error) {
	alpha := e.cfg.BiasAlpha
	if alpha == 0 {
		alpha = 1.0
	}
	bias := e.cfg.BiasCell
	return scoreChunked(ctx, e.predictor, e.cfg, sequences, func(row []float64) float64 {
		overMax := 0.0
		first := true
		for c, activity := range row {
			if c == bias {
				continue
			}
			if first || activity > overMax {
				overMax = activity
				first = false
			}
		}
		if first {
			// Single-cell model: nothing to compete against.
			return row[bias] * alpha
		}
		return row[bias]*alpha - overMax
	})
}
