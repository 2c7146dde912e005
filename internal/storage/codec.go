package storage

import (
	"encoding/json"
	"errors"

	"seqforge/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeRound(r model.RoundRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRound(data []byte) (model.RoundRecord, error) {
	var round model.RoundRecord
	if err := json.Unmarshal(data, &round); err != nil {
		return model.RoundRecord{}, err
	}
	if err := checkVersion(round.VersionedRecord); err != nil {
		return model.RoundRecord{}, err
	}
	return round, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
