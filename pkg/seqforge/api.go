package seqforge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"seqforge/internal/model"
	"seqforge/internal/platform"
	"seqforge/internal/storage"
)

const (
	defaultDBPath     = "seqforge.db"
	defaultExportsDir = "exports"
)

// DefaultSchedule is the proposal schedule used when a design request
// does not supply one: one large warm-up round followed by five equal
// collection rounds.
var DefaultSchedule = []int{2000, 1000, 1000, 1000, 1000, 1000}

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store storage.Store
	lab   *platform.Lab

	exportsDir string
}

type DesignRequest struct {
	RunID    string
	Artifact string
	Schedule []int
	Seed     int64
	Motifs   []string
	Knobs    model.DesignKnobs
}

type RoundItem struct {
	Index     int
	Target    int
	Accepted  int
	Attempts  int
	Steps     int
	Exhausted bool
	Shortfall int
}

type DesignSummary struct {
	RunID         string
	TotalAccepted int
	TotalTarget   int
	Rounds        []RoundItem
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID         string
	CreatedAtUTC  string
	Artifact      string
	Seed          int64
	Rounds        int
	TotalAccepted int
	TotalTarget   int
}

type RoundsRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	FastaPath string
	JSONPath  string
	Sequences int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureLab(ctx)
	return err
}

func (c *Client) Reset(ctx context.Context) error {
	l, err := c.ensureLab(ctx)
	if err != nil {
		return err
	}
	return l.Reset(ctx)
}

// Design runs the full proposal schedule and persists the run; the
// summary reports accepted-vs-target per round.
func (c *Client) Design(ctx context.Context, req DesignRequest) (DesignSummary, error) {
	if req.Artifact == "" {
		return DesignSummary{}, errors.New("design requires an artifact path")
	}
	if len(req.Schedule) == 0 {
		req.Schedule = append([]int(nil), DefaultSchedule...)
	}

	l, err := c.ensureLab(ctx)
	if err != nil {
		return DesignSummary{}, err
	}

	result, err := l.RunDesign(ctx, platform.DesignConfig{
		RunID:    req.RunID,
		Artifact: req.Artifact,
		Schedule: req.Schedule,
		Seed:     req.Seed,
		Motifs:   req.Motifs,
		Knobs:    req.Knobs,
	})
	if err != nil {
		return DesignSummary{}, err
	}

	summary := DesignSummary{
		RunID:         result.Run.ID,
		TotalAccepted: result.Run.TotalAccepted,
		TotalTarget:   result.Run.TotalTarget,
		Rounds:        make([]RoundItem, 0, len(result.Rounds)),
	}
	for _, round := range result.Rounds {
		summary.Rounds = append(summary.Rounds, roundItem(round))
	}
	return summary, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if _, err := c.ensureLab(ctx); err != nil {
		return nil, err
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunItem{
			RunID:         run.ID,
			CreatedAtUTC:  run.CreatedAtUTC,
			Artifact:      run.Artifact,
			Seed:          run.Seed,
			Rounds:        len(run.RoundIDs),
			TotalAccepted: run.TotalAccepted,
			TotalTarget:   run.TotalTarget,
		})
	}
	return out, nil
}

func (c *Client) Rounds(ctx context.Context, req RoundsRequest) ([]RoundItem, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	rounds, err := c.store.GetRounds(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := make([]RoundItem, 0, len(rounds))
	for _, round := range rounds {
		out = append(out, roundItem(round))
	}
	return out, nil
}

// Round returns one persisted round in full, accepted sequences included.
func (c *Client) Round(ctx context.Context, roundID string) (model.RoundRecord, error) {
	if roundID == "" {
		return model.RoundRecord{}, errors.New("round id is required")
	}
	if _, err := c.ensureLab(ctx); err != nil {
		return model.RoundRecord{}, err
	}
	round, ok, err := c.store.GetRound(ctx, roundID)
	if err != nil {
		return model.RoundRecord{}, err
	}
	if !ok {
		return model.RoundRecord{}, fmt.Errorf("round not found: %s", roundID)
	}
	return round, nil
}

// Export writes a run's accepted sequences as FASTA plus a JSON document
// holding the run record and all round records.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = c.exportsDir
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	rounds, err := c.store.GetRounds(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ExportSummary{}, err
	}

	var fasta strings.Builder
	sequences := 0
	for _, round := range rounds {
		for i, accepted := range round.Accepted {
			fmt.Fprintf(&fasta, ">%s_r%d_%04d energy=%.6f penalty=%.6f\n%s\n",
				run.ID, round.Index, i, accepted.Energy, accepted.Penalty, accepted.Sequence)
			sequences++
		}
	}
	fastaPath := filepath.Join(outDir, run.ID+".fasta")
	if err := os.WriteFile(fastaPath, []byte(fasta.String()), 0o644); err != nil {
		return ExportSummary{}, err
	}

	doc := struct {
		Run    model.RunRecord     `json:"run"`
		Rounds []model.RoundRecord `json:"rounds"`
	}{Run: run, Rounds: rounds}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ExportSummary{}, err
	}
	jsonPath := filepath.Join(outDir, run.ID+".json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return ExportSummary{}, err
	}

	return ExportSummary{
		RunID:     runID,
		FastaPath: filepath.Clean(fastaPath),
		JSONPath:  filepath.Clean(jsonPath),
		Sequences: sequences,
	}, nil
}

func (c *Client) ArtifactInfo(ctx context.Context, path string) (model.ArtifactSummary, error) {
	l, err := c.ensureLab(ctx)
	if err != nil {
		return model.ArtifactSummary{}, err
	}
	return l.ArtifactInfo(path)
}

// ParseSchedule parses a comma-separated proposal schedule like
// "2000,1000,1000".
func ParseSchedule(spec string) ([]int, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, errors.New("schedule is empty")
	}
	parts := strings.Split(spec, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid schedule entry %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("schedule entry must be >= 0, got %d", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if _, err := c.ensureLab(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}

func roundItem(round model.RoundRecord) RoundItem {
	return RoundItem{
		Index:     round.Index,
		Target:    round.Target,
		Accepted:  len(round.Accepted),
		Attempts:  round.Attempts,
		Steps:     round.Steps,
		Exhausted: round.Exhausted,
		Shortfall: round.Shortfall,
	}
}

func (c *Client) ensureLab(ctx context.Context) (*platform.Lab, error) {
	if c.lab != nil {
		return c.lab, nil
	}
	l := platform.NewLab(platform.Config{Store: c.store})
	if err := l.Init(ctx); err != nil {
		return nil, err
	}
	c.lab = l
	return c.lab, nil
}
