package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seqforge/internal/infer"
	"seqforge/internal/model"
)

func writeArtifactFile(t *testing.T) string {
	t.Helper()
	artifact := infer.Artifact{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: infer.SupportedSchemaVersion,
			CodecVersion:  infer.SupportedCodecVersion,
		},
		Alphabet: "ACGT",
		Length:   8,
		Cells:    []string{"on", "off"},
		Motifs: []infer.Motif{
			{
				Name: "ac-step",
				Weights: [][]float64{
					{1, 0, 0, 0},
					{0, 1, 0, 0},
				},
			},
		},
		Readout: [][]float64{{1.0}, {-0.5}},
		Bias:    []float64{0, 0.25},
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "artifact.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestRunInitMemoryStore(t *testing.T) {
	if err := run(context.Background(), []string{"init", "-store", "memory"}); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func TestRunDesignCommand(t *testing.T) {
	artifact := writeArtifactFile(t)
	err := run(context.Background(), []string{
		"design",
		"-artifact", artifact,
		"-schedule", "2,1",
		"-seed", "7",
		"-batch-size", "4",
		"-n-steps", "2",
		"-max-attempts", "2",
		"-energy-threshold", "-10",
		"-score-pct", "1.0",
	})
	if err != nil {
		t.Fatalf("design: %v", err)
	}
}

func TestRunDesignRequiresArtifact(t *testing.T) {
	err := run(context.Background(), []string{"design", "-schedule", "1"})
	if err == nil || !strings.Contains(err.Error(), "artifact") {
		t.Fatalf("expected artifact error, got %v", err)
	}
}

func TestRunDesignFromConfigFile(t *testing.T) {
	artifact := writeArtifactFile(t)
	config := writeConfig(t, `{
		"artifact": "`+artifact+`",
		"n_proposals": "2,1",
		"seed": 7,
		"batch_size": 4,
		"n_steps": 2,
		"max_attempts": 2,
		"energy_threshold": -10,
		"score_pct": 1.0
	}`)
	if err := run(context.Background(), []string{"design", "-config", config}); err != nil {
		t.Fatalf("design from config: %v", err)
	}
}

func TestRunExportValidation(t *testing.T) {
	if err := run(context.Background(), []string{"export"}); err == nil {
		t.Fatal("expected error without run id or latest")
	}
	if err := run(context.Background(), []string{"export", "-run-id", "x", "-latest"}); err == nil {
		t.Fatal("expected error for run id plus latest")
	}
}

func TestRunArtifactInfoCommand(t *testing.T) {
	artifact := writeArtifactFile(t)
	if err := run(context.Background(), []string{"artifact-info", "-artifact", artifact}); err != nil {
		t.Fatalf("artifact-info: %v", err)
	}
	if err := run(context.Background(), []string{"artifact-info"}); err == nil {
		t.Fatal("expected error without artifact")
	}
}
