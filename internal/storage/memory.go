package storage

import (
	"context"
	"sort"
	"sync"

	"seqforge/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	rounds      map[string]model.RoundRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.rounds = make(map[string]model.RoundRecord)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.Schedule = append([]int(nil), run.Schedule...)
	run.RoundIDs = append([]string(nil), run.RoundIDs...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.Schedule = append([]int(nil), run.Schedule...)
	run.RoundIDs = append([]string(nil), run.RoundIDs...)
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.Schedule = append([]int(nil), run.Schedule...)
		run.RoundIDs = append([]string(nil), run.RoundIDs...)
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC > out[j].CreatedAtUTC
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SaveRound(_ context.Context, id string, round model.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round.Accepted = append([]model.ScoredSequence(nil), round.Accepted...)
	s.rounds[id] = round
	return nil
}

func (s *MemoryStore) GetRound(_ context.Context, id string) (model.RoundRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[id]
	if !ok {
		return model.RoundRecord{}, false, nil
	}
	round.Accepted = append([]model.ScoredSequence(nil), round.Accepted...)
	return round, true, nil
}

func (s *MemoryStore) GetRounds(_ context.Context, runID string) ([]model.RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RoundRecord, 0)
	for _, round := range s.rounds {
		if round.RunID != runID {
			continue
		}
		round.Accepted = append([]model.ScoredSequence(nil), round.Accepted...)
		out = append(out, round)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
