package infer

import (
	"encoding/json"
	"fmt"
	"os"

	"seqforge/internal/model"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

// Motif is one position weight matrix: Weights[pos][channel].
type Motif struct {
	Name    string      `json:"name"`
	Weights [][]float64 `json:"weights"`
}

// Artifact is the on-disk description of a pretrained PWM-bank scorer.
// Readout[cell][motif] and Bias[cell] map motif features to per-cell
// activities.
type Artifact struct {
	model.VersionedRecord
	Alphabet string      `json:"alphabet"`
	Length   int         `json:"length"`
	Cells    []string    `json:"cells"`
	Motifs   []Motif     `json:"motifs"`
	Readout  [][]float64 `json:"readout"`
	Bias     []float64   `json:"bias"`
}

// LoadArtifact reads and validates a model artifact. Any failure here is
// fatal to the run; a partially loaded model is never returned.
func LoadArtifact(path string) (*PWMModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact %s: %v", ErrModelInference, path, err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decode artifact %s: %v", ErrModelInference, path, err)
	}
	m, err := NewPWMModel(artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: artifact %s: %v", ErrModelInference, path, err)
	}
	m.path = path
	return m, nil
}

func validateArtifact(a Artifact) error {
	if a.SchemaVersion != SupportedSchemaVersion || a.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("unsupported artifact version: schema=%d codec=%d", a.SchemaVersion, a.CodecVersion)
	}
	if len(a.Alphabet) < 2 {
		return fmt.Errorf("alphabet must have at least 2 symbols: %q", a.Alphabet)
	}
	seen := make(map[byte]struct{}, len(a.Alphabet))
	for i := 0; i < len(a.Alphabet); i++ {
		if _, dup := seen[a.Alphabet[i]]; dup {
			return fmt.Errorf("alphabet has duplicate symbol %q", a.Alphabet[i])
		}
		seen[a.Alphabet[i]] = struct{}{}
	}
	if a.Length <= 0 {
		return fmt.Errorf("length must be > 0: %d", a.Length)
	}
	if len(a.Cells) == 0 {
		return fmt.Errorf("at least one cell class is required")
	}
	if len(a.Motifs) == 0 {
		return fmt.Errorf("at least one motif is required")
	}
	for _, motif := range a.Motifs {
		if len(motif.Weights) == 0 || len(motif.Weights) > a.Length {
			return fmt.Errorf("motif %s: width %d out of range for length %d", motif.Name, len(motif.Weights), a.Length)
		}
		for pos, row := range motif.Weights {
			if len(row) != len(a.Alphabet) {
				return fmt.Errorf("motif %s: position %d has %d weights, alphabet has %d symbols", motif.Name, pos, len(row), len(a.Alphabet))
			}
		}
	}
	if len(a.Readout) != len(a.Cells) {
		return fmt.Errorf("readout rows %d != cells %d", len(a.Readout), len(a.Cells))
	}
	for i, row := range a.Readout {
		if len(row) != len(a.Motifs) {
			return fmt.Errorf("readout row %d has %d weights, artifact has %d motifs", i, len(row), len(a.Motifs))
		}
	}
	if len(a.Bias) != len(a.Cells) {
		return fmt.Errorf("bias entries %d != cells %d", len(a.Bias), len(a.Cells))
	}
	return nil
}

// Summary reports the loaded artifact's shape.
func (m *PWMModel) Summary() model.ArtifactSummary {
	return model.ArtifactSummary{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		Path:     m.path,
		Alphabet: m.artifact.Alphabet,
		Cells:    len(m.artifact.Cells),
		Motifs:   len(m.artifact.Motifs),
		Length:   m.artifact.Length,
	}
}
