package energy

import (
	"context"
	"math"

	"seqforge/internal/infer"
)

// Entropy rewards concentrated cell activity: the weighted bias-cell
// activity minus the Shannon entropy of the softmaxed activity vector, so
// diffuse responses across cell classes score low.
type Entropy struct {
	cfg       Config
	predictor infer.Predictor
}

func NewEntropy(cfg Config, p infer.Predictor) (*Entropy, error) {
	if err := cfg.validate(p.Cells()); err != nil {
		return nil, err
	}
	return &Entropy{cfg: cfg, predictor: p}, nil
}

func (e *Entropy) Name() string { return "entropy" }

func (e *Entropy) Score(ctx context.Context, sequences []string) ([]float64, error) {
	alpha := e.cfg.BiasAlpha
	if alpha == 0 {
		alpha = 1.0
	}
	bias := e.cfg.BiasCell
	return scoreChunked(ctx, e.predictor, e.cfg, sequences, func(row []float64) float64 {
		return row[bias]*alpha - shannonEntropy(row)
	})
}

func shannonEntropy(row []float64) float64 {
	maxActivity := row[0]
	for _, v := range row[1:] {
		if v > maxActivity {
			maxActivity = v
		}
	}
	total := 0.0
	exps := make([]float64, len(row))
	for i, v := range row {
		exps[i] = math.Exp(v - maxActivity)
		total += exps[i]
	}
	entropy := 0.0
	for _, e := range exps {
		p := e / total
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	return entropy
}
