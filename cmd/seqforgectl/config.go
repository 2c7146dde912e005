package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	forge "seqforge/pkg/seqforge"
)

func loadDesignRequestFromConfig(path string) (forge.DesignRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return forge.DesignRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return forge.DesignRequest{}, err
	}

	var req forge.DesignRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["artifact"]); ok {
		req.Artifact = v
	}
	if v, ok := raw["n_proposals"]; ok {
		schedule, err := scheduleFromAny(v)
		if err != nil {
			return forge.DesignRequest{}, err
		}
		req.Schedule = schedule
	}
	if v, ok, err := int64Field(raw, "seed"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Seed = v
	}
	if v, ok := asStringSlice(raw["motifs"]); ok {
		req.Motifs = v
	}

	if v, ok := asString(raw["params_module"]); ok {
		req.Knobs.ParamsModule = v
	}
	if v, ok := asString(raw["energy_module"]); ok {
		req.Knobs.EnergyModule = v
	}
	if v, ok := asString(raw["generator_module"]); ok {
		req.Knobs.GeneratorModule = v
	}
	if v, ok := asString(raw["penalty_module"]); ok {
		req.Knobs.PenaltyModule = v
	}
	if v, ok, err := intField(raw, "batch_size"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.BatchSize = v
	}
	if v, ok, err := intField(raw, "n_channels"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.NChannels = v
	}
	if v, ok, err := intField(raw, "length"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.Length = v
	}
	if v, ok, err := intField(raw, "bias_cell"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.BiasCell = v
	}
	if v, ok := asFloat64(raw["bias_alpha"]); ok {
		req.Knobs.BiasAlpha = v
	}
	if v, ok := asFloat64(raw["bending_factor"]); ok {
		req.Knobs.BendingFactor = v
	}
	if v, ok := asFloat64(raw["a_min"]); ok {
		req.Knobs.AMin = v
	}
	if v, ok := asFloat64(raw["a_max"]); ok {
		req.Knobs.AMax = v
	}
	if v, ok, err := intField(raw, "n_positions"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.NPositions = v
	}
	if v, ok := asBool(raw["disjoint_positions"]); ok {
		req.Knobs.Disjoint = v
	}
	if v, ok := asFloat64(raw["a"]); ok {
		req.Knobs.A = v
	}
	if v, ok := asFloat64(raw["b"]); ok {
		req.Knobs.B = v
	}
	if v, ok := asFloat64(raw["gamma"]); ok {
		req.Knobs.Gamma = v
	}
	if v, ok := asFloat64(raw["energy_threshold"]); ok {
		req.Knobs.EnergyThreshold = v
	}
	if v, ok, err := intField(raw, "max_attempts"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.MaxAttempts = v
	}
	if v, ok, err := intField(raw, "n_steps"); err != nil {
		return forge.DesignRequest{}, err
	} else if ok {
		req.Knobs.NSteps = &v
	}
	if v, ok := asFloat64(raw["score_pct"]); ok {
		req.Knobs.ScorePct = &v
	}

	return req, nil
}

// scheduleFromAny accepts either "2000,1000,1000" or a JSON array of
// numbers.
func scheduleFromAny(v any) ([]int, error) {
	switch x := v.(type) {
	case string:
		return forge.ParseSchedule(x)
	case []any:
		out := make([]int, 0, len(x))
		for i, item := range x {
			n, ok := asInt(item)
			if !ok {
				return nil, fmt.Errorf("n_proposals entry %d is not a number", i)
			}
			if n < 0 {
				return nil, fmt.Errorf("n_proposals entry %d must be >= 0, got %d", i, n)
			}
			out = append(out, n)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("n_proposals is empty")
		}
		return out, nil
	default:
		return nil, fmt.Errorf("n_proposals must be a string or array")
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asInt rejects fractional JSON numbers instead of truncating them.
func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

// intField reads an integer config key. A missing key is fine; a present
// value that is not an integer is a config error, not a silent skip.
func intField(raw map[string]any, key string) (int, bool, error) {
	v, ok := raw[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := asInt(v)
	if !ok {
		return 0, false, fmt.Errorf("%s must be an integer, got %v", key, v)
	}
	return n, true, nil
}

func int64Field(raw map[string]any, key string) (int64, bool, error) {
	v, ok := raw[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := asInt64(v)
	if !ok {
		return 0, false, fmt.Errorf("%s must be an integer, got %v", key, v)
	}
	return n, true, nil
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func loadOrDefaultDesignRequest(configPath string) (forge.DesignRequest, error) {
	if configPath == "" {
		return forge.DesignRequest{}, nil
	}
	req, err := loadDesignRequestFromConfig(configPath)
	if err != nil {
		return forge.DesignRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}
