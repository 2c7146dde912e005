package storage

import (
	"context"

	"seqforge/internal/model"
)

// Store defines persistence operations for design runs and their rounds.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveRound(ctx context.Context, id string, round model.RoundRecord) error
	GetRound(ctx context.Context, id string) (model.RoundRecord, bool, error)
	GetRounds(ctx context.Context, runID string) ([]model.RoundRecord, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}
