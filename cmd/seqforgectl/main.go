package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"seqforge/internal/platform"
	"seqforge/internal/storage"
	forge "seqforge/pkg/seqforge"
)

const (
	defaultDBPath = "seqforge.db"
	exportsDir    = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "design":
		return runDesign(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "rounds":
		return runRounds(ctx, args[1:])
	case "round":
		return runRound(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "artifact-info":
		return runArtifactInfo(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: seqforgectl <init|reset|design|runs|rounds|round|export|artifact-info> [flags]", msg)
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	lab := platform.NewLab(platform.Config{Store: store})
	if err := lab.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	lab := platform.NewLab(platform.Config{Store: store})
	if err := lab.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runDesign(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("design", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional design config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	artifact := fs.String("artifact", "", "model artifact JSON path")
	scheduleSpec := fs.String("schedule", "", "comma-separated proposal schedule, e.g. 2000,1000,1000")
	seed := fs.Int64("seed", 1, "rng seed")
	motifsSpec := fs.String("motifs", "", "comma-separated penalty motifs (overrides defaults)")
	paramsModule := fs.String("params-module", "", "parameterization variant: basic|weighted")
	energyModule := fs.String("energy-module", "", "energy variant: overmax|entropy")
	generatorModule := fs.String("generator-module", "", "generator variant: annealer|adalead")
	penaltyModule := fs.String("penalty-module", "", "penalty variant: motif|homopolymer")
	batchSize := fs.Int("batch-size", 0, "candidates per batch (0 uses default)")
	nChannels := fs.Int("n-channels", 0, "symbol channels (0 derives from artifact)")
	length := fs.Int("length", 0, "sequence length (0 derives from artifact)")
	biasCell := fs.Int("bias-cell", 0, "target cell index for the energy bias term")
	biasAlpha := fs.Float64("bias-alpha", 0, "bias cell weighting (0 uses default)")
	bendingFactor := fs.Float64("bending-factor", 0, "ceiling compression factor in [0,1]")
	aMin := fs.Float64("a-min", 0, "energy floor (0 with a-max 0 uses defaults)")
	aMax := fs.Float64("a-max", 0, "energy ceiling (0 with a-min 0 uses defaults)")
	nPositions := fs.Int("n-positions", 0, "positions perturbed per proposal (0 uses default)")
	disjoint := fs.Bool("disjoint-positions", false, "draw perturbation positions without replacement")
	schedA := fs.Float64("a", 0, "temperature schedule numerator (0 uses default)")
	schedB := fs.Float64("b", 0, "temperature schedule offset (0 uses default)")
	gamma := fs.Float64("gamma", 0, "temperature schedule exponent in (0.5,1] (0 uses default)")
	energyThreshold := fs.Float64("energy-threshold", 0, "minimum energy for acceptance")
	maxAttempts := fs.Int("max-attempts", 0, "attempt cycles per round (0 uses default)")
	nSteps := fs.Int("n-steps", 0, "annealing steps per attempt cycle (0 is a no-op cycle)")
	scorePct := fs.Float64("score-pct", 0, "penalty pass boundary in [0,1] (0 never passes)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultDesignRequest(*configPath)
	if err != nil {
		return err
	}
	if setFlags["run-id"] {
		req.RunID = *runID
	}
	if setFlags["artifact"] {
		req.Artifact = *artifact
	}
	if setFlags["schedule"] {
		schedule, err := forge.ParseSchedule(*scheduleSpec)
		if err != nil {
			return err
		}
		req.Schedule = schedule
	}
	if setFlags["seed"] {
		req.Seed = *seed
	}
	if setFlags["motifs"] {
		req.Motifs = splitMotifs(*motifsSpec)
	}
	if setFlags["params-module"] {
		req.Knobs.ParamsModule = *paramsModule
	}
	if setFlags["energy-module"] {
		req.Knobs.EnergyModule = *energyModule
	}
	if setFlags["generator-module"] {
		req.Knobs.GeneratorModule = *generatorModule
	}
	if setFlags["penalty-module"] {
		req.Knobs.PenaltyModule = *penaltyModule
	}
	if setFlags["batch-size"] {
		req.Knobs.BatchSize = *batchSize
	}
	if setFlags["n-channels"] {
		req.Knobs.NChannels = *nChannels
	}
	if setFlags["length"] {
		req.Knobs.Length = *length
	}
	if setFlags["bias-cell"] {
		req.Knobs.BiasCell = *biasCell
	}
	if setFlags["bias-alpha"] {
		req.Knobs.BiasAlpha = *biasAlpha
	}
	if setFlags["bending-factor"] {
		req.Knobs.BendingFactor = *bendingFactor
	}
	if setFlags["a-min"] {
		req.Knobs.AMin = *aMin
	}
	if setFlags["a-max"] {
		req.Knobs.AMax = *aMax
	}
	if setFlags["n-positions"] {
		req.Knobs.NPositions = *nPositions
	}
	if setFlags["disjoint-positions"] {
		req.Knobs.Disjoint = *disjoint
	}
	if setFlags["a"] {
		req.Knobs.A = *schedA
	}
	if setFlags["b"] {
		req.Knobs.B = *schedB
	}
	if setFlags["gamma"] {
		req.Knobs.Gamma = *gamma
	}
	if setFlags["energy-threshold"] {
		req.Knobs.EnergyThreshold = *energyThreshold
	}
	if setFlags["max-attempts"] {
		req.Knobs.MaxAttempts = *maxAttempts
	}
	if setFlags["n-steps"] {
		v := *nSteps
		req.Knobs.NSteps = &v
	}
	if setFlags["score-pct"] {
		v := *scorePct
		req.Knobs.ScorePct = &v
	}
	if req.Artifact == "" {
		return errors.New("design requires --artifact or an artifact in the config file")
	}

	client, err := forge.New(forge.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Design(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("design completed run_id=%s seed=%d rounds=%d\n", summary.RunID, req.Seed, len(summary.Rounds))
	for _, round := range summary.Rounds {
		fmt.Printf("round=%d target=%d accepted=%d attempts=%d steps=%d exhausted=%t shortfall=%d\n",
			round.Index,
			round.Target,
			round.Accepted,
			round.Attempts,
			round.Steps,
			round.Exhausted,
			round.Shortfall,
		)
	}
	fmt.Printf("total_accepted=%d total_target=%d\n", summary.TotalAccepted, summary.TotalTarget)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := forge.New(forge.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, forge.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, item := range runs {
		fmt.Printf("run_id=%s created_at=%s artifact=%s seed=%d rounds=%d accepted=%d target=%d\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Artifact,
			item.Seed,
			item.Rounds,
			item.TotalAccepted,
			item.TotalTarget,
		)
	}
	return nil
}

func runRounds(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rounds", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show rounds for the most recent run")
	jsonOut := fs.Bool("json", false, "emit rounds as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("rounds requires --run-id or --latest")
	}

	client, err := forge.New(forge.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	rounds, err := client.Rounds(ctx, forge.RoundsRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		fmt.Println("no rounds found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rounds)
	}

	for _, round := range rounds {
		fmt.Printf("round=%d target=%d accepted=%d attempts=%d steps=%d exhausted=%t shortfall=%d\n",
			round.Index,
			round.Target,
			round.Accepted,
			round.Attempts,
			round.Steps,
			round.Exhausted,
			round.Shortfall,
		)
	}
	return nil
}

func runRound(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("round", flag.ContinueOnError)
	roundID := fs.String("id", "", "round id")
	limit := fs.Int("limit", 20, "max accepted sequences to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit the round record as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *roundID == "" {
		return errors.New("round requires --id")
	}

	client, err := forge.New(forge.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	round, err := client.Round(ctx, *roundID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(round)
	}

	fmt.Printf("run_id=%s round=%d target=%d accepted=%d attempts=%d steps=%d exhausted=%t shortfall=%d seed=%d\n",
		round.RunID,
		round.Index,
		round.Target,
		len(round.Accepted),
		round.Attempts,
		round.Steps,
		round.Exhausted,
		round.Shortfall,
		round.Seed,
	)
	accepted := round.Accepted
	if *limit > 0 && len(accepted) > *limit {
		accepted = accepted[:*limit]
	}
	for _, item := range accepted {
		fmt.Printf("sequence=%s energy=%.6f penalty=%.6f\n", item.Sequence, item.Energy, item.Penalty)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "output directory (default exports/)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := forge.New(forge.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, forge.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s sequences=%d fasta=%s json=%s\n",
		summary.RunID,
		summary.Sequences,
		summary.FastaPath,
		summary.JSONPath,
	)
	return nil
}

func runArtifactInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("artifact-info", flag.ContinueOnError)
	artifact := fs.String("artifact", "", "model artifact JSON path")
	jsonOut := fs.Bool("json", false, "emit the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *artifact == "" {
		return errors.New("artifact-info requires --artifact")
	}

	client, err := forge.New(forge.Options{StoreKind: "memory"})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	info, err := client.ArtifactInfo(ctx, *artifact)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Printf("artifact=%s alphabet=%s length=%d cells=%d motifs=%d\n",
		info.Path,
		info.Alphabet,
		info.Length,
		info.Cells,
		info.Motifs,
	)
	return nil
}

func splitMotifs(spec string) []string {
	parts := strings.Split(spec, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		motif := strings.TrimSpace(part)
		if motif == "" {
			continue
		}
		out = append(out, motif)
	}
	return out
}
