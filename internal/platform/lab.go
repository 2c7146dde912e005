package platform

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"seqforge/internal/anneal"
	"seqforge/internal/energy"
	"seqforge/internal/infer"
	"seqforge/internal/model"
	"seqforge/internal/penalty"
	"seqforge/internal/seq"
	"seqforge/internal/storage"
)

type Config struct {
	Store storage.Store
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// DesignConfig describes one full design run: which artifact to score
// against, the per-round proposal schedule, and the search knobs shared by
// every round.
type DesignConfig struct {
	RunID    string
	Artifact string
	Schedule []int
	Seed     int64
	Motifs   []string
	Knobs    model.DesignKnobs
}

// DesignResult is the persisted outcome of a run: the run record plus its
// round records in schedule order.
type DesignResult struct {
	Run    model.RunRecord
	Rounds []model.RoundRecord
}

// Lab owns the store and the loaded model artifacts, and drives design
// runs round by round.
type Lab struct {
	store storage.Store

	mu sync.RWMutex

	models         map[string]*infer.PWMModel
	activeRuns     map[string]struct{}
	started        bool
	lastStopReason StopReason

	config Config
}

var (
	defaultLabMu sync.Mutex
	defaultLab   *Lab
)

func NewLab(cfg Config) *Lab {
	return &Lab{
		store:          cfg.Store,
		models:         make(map[string]*infer.PWMModel),
		activeRuns:     make(map[string]struct{}),
		config:         cfg,
		lastStopReason: StopReasonNormal,
	}
}

func StartDefault(ctx context.Context, cfg Config) (*Lab, error) {
	defaultLabMu.Lock()
	defer defaultLabMu.Unlock()

	if defaultLab != nil && defaultLab.Started() {
		return defaultLab, nil
	}

	l := NewLab(cfg)
	if err := l.Init(ctx); err != nil {
		return nil, err
	}
	defaultLab = l
	return defaultLab, nil
}

func Default() (*Lab, bool) {
	defaultLabMu.Lock()
	l := defaultLab
	defaultLabMu.Unlock()

	if l == nil || !l.Started() {
		return nil, false
	}
	return l, true
}

func StopDefault(reason StopReason) error {
	defaultLabMu.Lock()
	l := defaultLab
	defaultLabMu.Unlock()
	if l == nil {
		return nil
	}
	if err := l.StopWithReason(reason); err != nil {
		return err
	}
	defaultLabMu.Lock()
	if defaultLab == l {
		defaultLab = nil
	}
	defaultLabMu.Unlock()
	return nil
}

func (l *Lab) Init(ctx context.Context) error {
	if l.store == nil {
		return fmt.Errorf("store is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}
	if err := l.store.Init(ctx); err != nil {
		return err
	}
	l.started = true
	return nil
}

func (l *Lab) Reset(ctx context.Context) error {
	_ = l.StopWithReason(StopReasonShutdown)
	if resetter, ok := l.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return l.Init(ctx)
}

func (l *Lab) Stop() {
	_ = l.StopWithReason(StopReasonNormal)
}

func (l *Lab) Shutdown() {
	_ = l.StopWithReason(StopReasonShutdown)
}

func (l *Lab) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = false
	l.lastStopReason = reason
	l.models = make(map[string]*infer.PWMModel)
	l.activeRuns = make(map[string]struct{})
	return nil
}

func (l *Lab) Started() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.started
}

func (l *Lab) LastStopReason() StopReason {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastStopReason
}

func (l *Lab) Store() storage.Store {
	return l.store
}

// LoadModel returns the cached model for path, loading and validating the
// artifact on first use. One loaded model serves every round of every run
// that names its path.
func (l *Lab) LoadModel(path string) (*infer.PWMModel, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: artifact path is required", model.ErrInvalidConfiguration)
	}

	l.mu.RLock()
	cached, ok := l.models[path]
	started := l.started
	l.mu.RUnlock()
	if !started {
		return nil, fmt.Errorf("lab is not initialized")
	}
	if ok {
		return cached, nil
	}

	m, err := infer.LoadArtifact(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.models[path]; ok {
		return existing, nil
	}
	l.models[path] = m
	return m, nil
}

// RunDesign executes the full proposal schedule: one annealing round per
// entry, strictly in order, each with a seed derived as run seed plus
// round index. Every round is persisted as it completes; an exhausted
// round records its shortfall and the run continues with the next entry.
func (l *Lab) RunDesign(ctx context.Context, cfg DesignConfig) (DesignResult, error) {
	if !l.Started() {
		return DesignResult{}, fmt.Errorf("lab is not initialized")
	}
	if len(cfg.Schedule) == 0 {
		return DesignResult{}, fmt.Errorf("%w: proposal schedule is empty", model.ErrInvalidConfiguration)
	}
	for i, target := range cfg.Schedule {
		if target < 0 {
			return DesignResult{}, fmt.Errorf("%w: schedule entry %d is negative: %d", model.ErrInvalidConfiguration, i, target)
		}
	}

	predictor, err := l.LoadModel(cfg.Artifact)
	if err != nil {
		return DesignResult{}, err
	}
	summary := predictor.Summary()
	knobs := applyKnobDefaults(cfg.Knobs, summary)
	if knobs.NChannels != len(summary.Alphabet) {
		return DesignResult{}, fmt.Errorf("%w: n_channels %d does not match artifact alphabet %q", model.ErrInvalidConfiguration, knobs.NChannels, summary.Alphabet)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := l.registerRun(runID); err != nil {
		return DesignResult{}, err
	}
	defer l.unregisterRun(runID)

	params, err := seq.Resolve(knobs.ParamsModule, seq.Config{
		BatchSize:   knobs.BatchSize,
		Length:      knobs.Length,
		Alphabet:    summary.Alphabet,
		NPositions:  knobs.NPositions,
		Disjoint:    knobs.Disjoint,
		BiasChannel: 0,
		BiasAlpha:   knobs.BiasAlpha,
	})
	if err != nil {
		return DesignResult{}, err
	}
	scorer, err := energy.Resolve(knobs.EnergyModule, energy.Config{
		BatchSize:     knobs.BatchSize,
		BiasCell:      knobs.BiasCell,
		BiasAlpha:     knobs.BiasAlpha,
		AMin:          knobs.AMin,
		AMax:          knobs.AMax,
		BendingFactor: knobs.BendingFactor,
	}, predictor)
	if err != nil {
		return DesignResult{}, err
	}
	screen, err := penalty.Resolve(knobs.PenaltyModule, penalty.Config{
		ScorePct: *knobs.ScorePct,
		Motifs:   cfg.Motifs,
	})
	if err != nil {
		return DesignResult{}, err
	}

	rounds := make([]model.RoundRecord, 0, len(cfg.Schedule))
	roundIDs := make([]string, 0, len(cfg.Schedule))
	totalAccepted := 0
	totalTarget := 0
	for i, target := range cfg.Schedule {
		roundSeed := cfg.Seed + int64(i)
		generator, err := anneal.Resolve(knobs.GeneratorModule, anneal.Config{
			Params:  params,
			Energy:  scorer,
			Penalty: screen,
			Rand:    rand.New(rand.NewSource(roundSeed)),
			Schedule: anneal.Schedule{
				A:     knobs.A,
				B:     knobs.B,
				Gamma: knobs.Gamma,
			},
			EnergyThreshold: knobs.EnergyThreshold,
			NSteps:          *knobs.NSteps,
			MaxAttempts:     knobs.MaxAttempts,
		})
		if err != nil {
			return DesignResult{}, err
		}

		result, err := generator.Round(ctx, target)
		if err != nil {
			return DesignResult{}, fmt.Errorf("round %d: %w", i, err)
		}

		record := model.RoundRecord{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: storage.CurrentSchemaVersion,
				CodecVersion:  storage.CurrentCodecVersion,
			},
			RunID:     runID,
			Index:     i,
			Target:    result.Target,
			Accepted:  result.Accepted,
			Attempts:  result.Attempts,
			Steps:     result.Steps,
			Exhausted: result.Exhausted,
			Shortfall: result.Shortfall,
			Seed:      roundSeed,
		}
		roundID := uuid.NewString()
		if err := l.store.SaveRound(ctx, roundID, record); err != nil {
			return DesignResult{}, fmt.Errorf("save round %d: %w", i, err)
		}
		rounds = append(rounds, record)
		roundIDs = append(roundIDs, roundID)
		totalAccepted += len(record.Accepted)
		totalTarget += target
	}

	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:            runID,
		CreatedAtUTC:  time.Now().UTC().Format(time.RFC3339),
		Artifact:      cfg.Artifact,
		Schedule:      append([]int(nil), cfg.Schedule...),
		Seed:          cfg.Seed,
		Config:        knobs,
		TotalAccepted: totalAccepted,
		TotalTarget:   totalTarget,
		RoundIDs:      roundIDs,
	}
	if err := l.store.SaveRun(ctx, run); err != nil {
		return DesignResult{}, fmt.Errorf("save run: %w", err)
	}

	return DesignResult{Run: run, Rounds: rounds}, nil
}

// ArtifactInfo loads (or reuses) the artifact at path and reports its
// shape.
func (l *Lab) ArtifactInfo(path string) (model.ArtifactSummary, error) {
	m, err := l.LoadModel(path)
	if err != nil {
		return model.ArtifactSummary{}, err
	}
	return m.Summary(), nil
}

func (l *Lab) registerRun(runID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return fmt.Errorf("lab is not initialized")
	}
	if _, exists := l.activeRuns[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	l.activeRuns[runID] = struct{}{}
	return nil
}

func (l *Lab) unregisterRun(runID string) {
	l.mu.Lock()
	delete(l.activeRuns, runID)
	l.mu.Unlock()
}

// applyKnobDefaults fills unset knobs with the defaults of a typical
// design run; length and channel count come from the artifact when unset.
// NSteps and ScorePct default only when nil: an explicit zero is a valid
// configuration (a no-op round, a gate that never passes) and is kept.
func applyKnobDefaults(knobs model.DesignKnobs, summary model.ArtifactSummary) model.DesignKnobs {
	if knobs.Length <= 0 {
		knobs.Length = summary.Length
	}
	if knobs.NChannels <= 0 {
		knobs.NChannels = len(summary.Alphabet)
	}
	if knobs.BatchSize <= 0 {
		knobs.BatchSize = 256
	}
	if knobs.NPositions <= 0 {
		knobs.NPositions = 1
	}
	if knobs.BiasAlpha == 0 {
		knobs.BiasAlpha = 1.0
	}
	if knobs.AMin == 0 && knobs.AMax == 0 {
		knobs.AMin = -2.0
		knobs.AMax = 2.0
	}
	if knobs.A == 0 {
		knobs.A = 1.0
	}
	if knobs.B == 0 {
		knobs.B = 1.0
	}
	if knobs.Gamma == 0 {
		knobs.Gamma = 0.501
	}
	if knobs.NSteps == nil {
		steps := 1000
		knobs.NSteps = &steps
	}
	if knobs.MaxAttempts == 0 {
		knobs.MaxAttempts = 3
	}
	if knobs.ScorePct == nil {
		pct := 1.0
		knobs.ScorePct = &pct
	}
	return knobs
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}
