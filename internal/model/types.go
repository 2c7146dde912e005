package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ScoredSequence is one accepted candidate with the scores it was
// harvested at.
type ScoredSequence struct {
	Sequence string  `json:"sequence"`
	Energy   float64 `json:"energy"`
	Penalty  float64 `json:"penalty"`
}

// RoundRecord is the persisted outcome of one annealing round.
type RoundRecord struct {
	VersionedRecord
	RunID     string           `json:"run_id"`
	Index     int              `json:"index"`
	Target    int              `json:"target"`
	Accepted  []ScoredSequence `json:"accepted"`
	Attempts  int              `json:"attempts"`
	Steps     int              `json:"steps"`
	Exhausted bool             `json:"exhausted"`
	Shortfall int              `json:"shortfall"`
	Seed      int64            `json:"seed"`
}

// RunRecord describes one full design run over a proposal schedule.
type RunRecord struct {
	VersionedRecord
	ID            string      `json:"id"`
	CreatedAtUTC  string      `json:"created_at_utc"`
	Artifact      string      `json:"artifact"`
	Schedule      []int       `json:"schedule"`
	Seed          int64       `json:"seed"`
	Config        DesignKnobs `json:"config"`
	TotalAccepted int         `json:"total_accepted"`
	TotalTarget   int         `json:"total_target"`
	RoundIDs      []string    `json:"round_ids"`
}

// DesignKnobs echoes the numeric and variant configuration a run executed
// with, so a stored run can be reproduced. NSteps and ScorePct are
// pointers because their zero values are meaningful configurations: nil
// means unset, an explicit zero reaches the controller intact.
type DesignKnobs struct {
	ParamsModule    string   `json:"params_module"`
	EnergyModule    string   `json:"energy_module"`
	GeneratorModule string   `json:"generator_module"`
	PenaltyModule   string   `json:"penalty_module"`
	BatchSize       int      `json:"batch_size"`
	NChannels       int      `json:"n_channels"`
	Length          int      `json:"length"`
	BiasCell        int      `json:"bias_cell"`
	BiasAlpha       float64  `json:"bias_alpha"`
	BendingFactor   float64  `json:"bending_factor"`
	AMin            float64  `json:"a_min"`
	AMax            float64  `json:"a_max"`
	NPositions      int      `json:"n_positions"`
	Disjoint        bool     `json:"disjoint_positions"`
	A               float64  `json:"a"`
	B               float64  `json:"b"`
	Gamma           float64  `json:"gamma"`
	EnergyThreshold float64  `json:"energy_threshold"`
	MaxAttempts     int      `json:"max_attempts"`
	NSteps          *int     `json:"n_steps,omitempty"`
	ScorePct        *float64 `json:"score_pct,omitempty"`
}

// ArtifactSummary describes a loaded model artifact.
type ArtifactSummary struct {
	VersionedRecord
	Path     string `json:"path"`
	Alphabet string `json:"alphabet"`
	Cells    int    `json:"cells"`
	Motifs   int    `json:"motifs"`
	Length   int    `json:"length"`
}
