package infer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"seqforge/internal/model"
)

func testArtifact() Artifact {
	return Artifact{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		Alphabet:        "ACGT",
		Length:          8,
		Cells:           []string{"k562", "hepg2"},
		Motifs: []Motif{
			{Name: "m0", Weights: [][]float64{
				{1, 0, 0, 0},
				{0, 1, 0, 0},
			}},
		},
		Readout: [][]float64{{1.0}, {-0.5}},
		Bias:    []float64{0, 0.25},
	}
}

func writeArtifact(t *testing.T, artifact Artifact) string {
	t.Helper()
	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "artifact.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoadArtifactRoundTrip(t *testing.T) {
	path := writeArtifact(t, testArtifact())

	m, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	if m.Cells() != 2 {
		t.Fatalf("expected 2 cells, got %d", m.Cells())
	}
	if m.Alphabet() != "ACGT" {
		t.Fatalf("unexpected alphabet: %q", m.Alphabet())
	}
	summary := m.Summary()
	if summary.Path != path || summary.Motifs != 1 || summary.Length != 8 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrModelInference) {
		t.Fatalf("expected ErrModelInference, got %v", err)
	}
}

func TestLoadArtifactMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if _, err := LoadArtifact(path); !errors.Is(err, ErrModelInference) {
		t.Fatalf("expected ErrModelInference, got %v", err)
	}
}

func TestLoadArtifactValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Artifact)
	}{
		{"version mismatch", func(a *Artifact) { a.SchemaVersion = 2 }},
		{"short alphabet", func(a *Artifact) { a.Alphabet = "A" }},
		{"duplicate symbol", func(a *Artifact) { a.Alphabet = "AACG" }},
		{"zero length", func(a *Artifact) { a.Length = 0 }},
		{"no cells", func(a *Artifact) { a.Cells = nil; a.Readout = nil; a.Bias = nil }},
		{"no motifs", func(a *Artifact) { a.Motifs = nil }},
		{"motif wider than length", func(a *Artifact) {
			a.Motifs[0].Weights = make([][]float64, 9)
			for i := range a.Motifs[0].Weights {
				a.Motifs[0].Weights[i] = []float64{0, 0, 0, 0}
			}
		}},
		{"motif row arity", func(a *Artifact) { a.Motifs[0].Weights[0] = []float64{1, 2} }},
		{"readout rows", func(a *Artifact) { a.Readout = a.Readout[:1] }},
		{"readout row arity", func(a *Artifact) { a.Readout[0] = []float64{1, 2} }},
		{"bias arity", func(a *Artifact) { a.Bias = a.Bias[:1] }},
	}
	for _, tc := range cases {
		artifact := testArtifact()
		tc.mutate(&artifact)
		if _, err := NewPWMModel(artifact); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
