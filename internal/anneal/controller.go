package anneal

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"seqforge/internal/energy"
	"seqforge/internal/model"
	"seqforge/internal/penalty"
	"seqforge/internal/seq"
)

// Config wires one round's collaborators and knobs into the controller.
type Config struct {
	Params  seq.Params
	Energy  energy.Evaluator
	Penalty penalty.Evaluator
	Rand    *rand.Rand

	Schedule        Schedule
	EnergyThreshold float64
	NSteps          int
	MaxAttempts     int
}

// Result is one round's outcome. A shortfall is a defined terminal state,
// not an error: the partial accepted set is still returned.
type Result struct {
	Accepted  []model.ScoredSequence
	Target    int
	Attempts  int
	Steps     int
	Exhausted bool
	Shortfall int
}

// Controller runs the annealing search: propose, evaluate, per-candidate
// Metropolis accept/reject, cool, harvest. One attempt-cycle is a fresh
// random batch annealed for NSteps steps; a round runs cycles until the
// target is met or MaxAttempts cycles are spent.
type Controller struct {
	cfg Config
}

func NewController(cfg Config) (*Controller, error) {
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	if _, err := NewSchedule(cfg.Schedule.A, cfg.Schedule.B, cfg.Schedule.Gamma); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg}, nil
}

// validateCommon checks the collaborators and knobs every generator
// variant needs; the cooling schedule is the annealer's alone.
func (cfg Config) validateCommon() error {
	if cfg.Params == nil {
		return fmt.Errorf("%w: parameterization is required", model.ErrInvalidConfiguration)
	}
	if cfg.Energy == nil {
		return fmt.Errorf("%w: energy evaluator is required", model.ErrInvalidConfiguration)
	}
	if cfg.Penalty == nil {
		return fmt.Errorf("%w: penalty evaluator is required", model.ErrInvalidConfiguration)
	}
	if cfg.Rand == nil {
		return fmt.Errorf("%w: random source is required", model.ErrInvalidConfiguration)
	}
	if cfg.NSteps < 0 {
		return fmt.Errorf("%w: n_steps must be >= 0, got %d", model.ErrInvalidConfiguration, cfg.NSteps)
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be > 0, got %d", model.ErrInvalidConfiguration, cfg.MaxAttempts)
	}
	if math.IsNaN(cfg.EnergyThreshold) {
		return fmt.Errorf("%w: energy_threshold must not be NaN", model.ErrInvalidConfiguration)
	}
	return nil
}

func (c *Controller) Name() string { return "annealer" }

// Round searches until the accepted set reaches target or the attempt
// budget is exhausted.
func (c *Controller) Round(ctx context.Context, target int) (Result, error) {
	if target < 0 {
		return Result{}, fmt.Errorf("%w: round target must be >= 0, got %d", model.ErrInvalidConfiguration, target)
	}
	result := Result{Target: target, Accepted: []model.ScoredSequence{}}
	if target == 0 {
		return result, nil
	}

	seen := make(map[string]struct{}, target)

	for result.Attempts < c.cfg.MaxAttempts && len(result.Accepted) < target {
		result.Attempts++
		done, err := c.attemptCycle(ctx, target, seen, &result)
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

// attemptCycle anneals one fresh batch. Returns true once the target is
// reached.
func (c *Controller) attemptCycle(ctx context.Context, target int, seen map[string]struct{}, result *Result) (bool, error) {
	c.cfg.Params.Init(c.cfg.Rand)
	sequences := c.cfg.Params.Decode()
	energies, err := c.cfg.Energy.Score(ctx, sequences)
	if err != nil {
		return false, err
	}
	penalties := c.cfg.Penalty.Score(sequences)

	// Candidates already passing both gates are eligible without any
	// perturbation.
	if c.harvest(sequences, energies, penalties, target, seen, result) {
		return true, nil
	}

	for step := 0; step < c.cfg.NSteps; step++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		temperature := c.cfg.Schedule.Temperature(step)

		c.cfg.Params.Propose(c.cfg.Rand)
		proposed := c.cfg.Params.Decode()
		proposedEnergies, err := c.cfg.Energy.Score(ctx, proposed)
		if err != nil {
			return false, err
		}
		proposedPenalties := c.cfg.Penalty.Score(proposed)

		for i := range proposed {
			delta := energies[i] - proposedEnergies[i]
			if delta > 0 && c.cfg.Rand.Float64() >= math.Exp(-delta/temperature) {
				c.cfg.Params.Revert(i)
				continue
			}
			// Improvements and ties are always kept.
			sequences[i] = proposed[i]
			energies[i] = proposedEnergies[i]
			penalties[i] = proposedPenalties[i]
		}
		result.Steps++

		if c.harvest(sequences, energies, penalties, target, seen, result) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Controller) harvest(sequences []string, energies, penalties []float64, target int, seen map[string]struct{}, result *Result) bool {
	return harvestInto(c.cfg.EnergyThreshold, c.cfg.Penalty, sequences, energies, penalties, target, seen, result)
}

// harvestInto moves every candidate passing both gates into the accepted
// set, deduplicated by sequence. Returns true once the target is reached.
func harvestInto(threshold float64, gate penalty.Evaluator, sequences []string, energies, penalties []float64, target int, seen map[string]struct{}, result *Result) bool {
	for i, sequence := range sequences {
		if energies[i] < threshold {
			continue
		}
		if !gate.Passes(penalties[i]) {
			continue
		}
		if _, dup := seen[sequence]; dup {
			continue
		}
		seen[sequence] = struct{}{}
		result.Accepted = append(result.Accepted, model.ScoredSequence{
			Sequence: sequence,
			Energy:   energies[i],
			Penalty:  penalties[i],
		})
		if len(result.Accepted) >= target {
			return true
		}
	}
	return false
}
