package anneal

import (
	"context"
	"fmt"

	"seqforge/internal/model"
)

// Adapt-with-the-Leader knobs. Mutation applies adaLeadMu expected edits
// per sequence, recombination toggles the crossover donor at
// adaLeadRecombRate per position, and parents are every candidate within
// adaLeadThreshold of the leader.
const (
	adaLeadThreshold   = 0.05
	adaLeadMu          = 1.0
	adaLeadRecombRate  = 0.1
	adaLeadRho         = 1
	adaLeadMutantTries = 16
)

// AdaLead is the greedy evolutionary generator variant: select parents
// near the current leader, recombine them, then roll each one out through
// point mutants for as long as the mutant beats its root. One
// attempt-cycle starts from a fresh batch and spends at most
// NSteps*BatchSize model queries; Steps counts scored generations.
type AdaLead struct {
	cfg      Config
	alphabet string
}

func NewAdaLead(cfg Config) (*AdaLead, error) {
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	alphabet := cfg.Params.Alphabet()
	if len(alphabet) < 2 {
		return nil, fmt.Errorf("%w: alphabet needs at least 2 symbols, got %q", model.ErrInvalidConfiguration, alphabet)
	}
	return &AdaLead{cfg: cfg, alphabet: alphabet}, nil
}

func (a *AdaLead) Name() string { return "adalead" }

// Round searches until the accepted set reaches target or the attempt
// budget is exhausted.
func (a *AdaLead) Round(ctx context.Context, target int) (Result, error) {
	if target < 0 {
		return Result{}, fmt.Errorf("%w: round target must be >= 0, got %d", model.ErrInvalidConfiguration, target)
	}
	result := Result{Target: target, Accepted: []model.ScoredSequence{}}
	if target == 0 {
		return result, nil
	}

	seen := make(map[string]struct{}, target)

	for result.Attempts < a.cfg.MaxAttempts && len(result.Accepted) < target {
		result.Attempts++
		done, err := a.attemptCycle(ctx, target, seen, &result)
		if err != nil {
			return Result{}, err
		}
		if done {
			return result, nil
		}
	}

	result.Exhausted = true
	result.Shortfall = target - len(result.Accepted)
	return result, nil
}

// attemptCycle evolves one fresh batch until the query budget is spent.
// Returns true once the target is reached.
func (a *AdaLead) attemptCycle(ctx context.Context, target int, seen map[string]struct{}, result *Result) (bool, error) {
	a.cfg.Params.Init(a.cfg.Rand)
	population := a.cfg.Params.Decode()
	energies, err := a.cfg.Energy.Score(ctx, population)
	if err != nil {
		return false, err
	}
	penalties := a.cfg.Penalty.Score(population)
	if harvestInto(a.cfg.EnergyThreshold, a.cfg.Penalty, population, energies, penalties, target, seen, result) {
		return true, nil
	}

	budget := a.cfg.NSteps * len(population)
	queries := 0
	measured := make(map[string]float64, budget+len(population))
	for i, s := range population {
		measured[s] = energies[i]
	}

	for queries < budget {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		parents := a.selectParents(population, energies)
		for r := 0; r < adaLeadRho; r++ {
			parents = a.recombine(parents)
		}
		rootEnergies, err := a.measure(ctx, parents, measured, &queries)
		if err != nil {
			return false, err
		}
		rootPenalties := a.cfg.Penalty.Score(parents)
		if harvestInto(a.cfg.EnergyThreshold, a.cfg.Penalty, parents, rootEnergies, rootPenalties, target, seen, result) {
			return true, nil
		}
		result.Steps++

		// Rollouts: each parent is the root of a mutant walk that continues
		// while the latest child still beats its root.
		type node struct {
			root int
			seq  string
		}
		nodes := make([]node, len(parents))
		for i, parent := range parents {
			nodes[i] = node{root: i, seq: parent}
		}

		for len(nodes) > 0 && queries+len(nodes) <= budget {
			children := make([]string, 0, len(nodes))
			childRoots := make([]int, 0, len(nodes))
			for _, n := range nodes {
				child, ok := a.mutate(n.seq, measured)
				if !ok {
					continue
				}
				children = append(children, child)
				childRoots = append(childRoots, n.root)
			}
			if len(children) == 0 {
				break
			}

			childEnergies, err := a.measure(ctx, children, measured, &queries)
			if err != nil {
				return false, err
			}
			childPenalties := a.cfg.Penalty.Score(children)
			if harvestInto(a.cfg.EnergyThreshold, a.cfg.Penalty, children, childEnergies, childPenalties, target, seen, result) {
				return true, nil
			}
			result.Steps++

			next := nodes[:0]
			for i, child := range children {
				if childEnergies[i] > rootEnergies[childRoots[i]] {
					next = append(next, node{root: childRoots[i], seq: child})
				}
			}
			nodes = next
		}
	}
	return false, nil
}

// selectParents keeps every candidate within the threshold margin of the
// leader and cycles the survivors back up to the batch size.
func (a *AdaLead) selectParents(population []string, energies []float64) []string {
	top := energies[0]
	for _, e := range energies[1:] {
		if e > top {
			top = e
		}
	}
	sign := 0.0
	if top > 0 {
		sign = 1.0
	} else if top < 0 {
		sign = -1.0
	}
	cut := top * (1 - sign*adaLeadThreshold)

	survivors := make([]string, 0, len(population))
	for i, e := range energies {
		if e >= cut {
			survivors = append(survivors, population[i])
		}
	}
	out := make([]string, a.cfg.Params.BatchSize())
	for i := range out {
		out[i] = survivors[i%len(survivors)]
	}
	return out
}

// recombine crosses consecutive pairs, toggling the donor whenever the
// per-position coin lands. An odd straggler passes through unchanged.
func (a *AdaLead) recombine(gen []string) []string {
	if len(gen) < 2 {
		return gen
	}
	a.cfg.Rand.Shuffle(len(gen), func(i, j int) {
		gen[i], gen[j] = gen[j], gen[i]
	})
	out := make([]string, 0, len(gen))
	for i := 0; i+1 < len(gen); i += 2 {
		left := []byte(gen[i])
		right := []byte(gen[i+1])
		switched := false
		for pos := range left {
			if a.cfg.Rand.Float64() < adaLeadRecombRate {
				switched = !switched
			}
			if switched {
				left[pos], right[pos] = right[pos], left[pos]
			}
		}
		out = append(out, string(left), string(right))
	}
	if len(gen)%2 == 1 {
		out = append(out, gen[len(gen)-1])
	}
	return out
}

// mutate resamples each position at rate mu/length and retries until the
// child has not been measured before. Small search spaces can run out of
// unseen mutants, so the retry budget is bounded.
func (a *AdaLead) mutate(sequence string, measured map[string]float64) (string, bool) {
	rate := adaLeadMu / float64(len(sequence))
	for try := 0; try < adaLeadMutantTries; try++ {
		buf := []byte(sequence)
		for i := range buf {
			if a.cfg.Rand.Float64() < rate {
				buf[i] = a.alphabet[a.cfg.Rand.Intn(len(a.alphabet))]
			}
		}
		child := string(buf)
		if _, dup := measured[child]; !dup {
			return child, true
		}
	}
	return "", false
}

// measure scores sequences, charges them against the query budget, and
// records them so mutants are never proposed twice.
func (a *AdaLead) measure(ctx context.Context, sequences []string, measured map[string]float64, queries *int) ([]float64, error) {
	energies, err := a.cfg.Energy.Score(ctx, sequences)
	if err != nil {
		return nil, err
	}
	*queries += len(sequences)
	for i, s := range sequences {
		measured[s] = energies[i]
	}
	return energies, nil
}
