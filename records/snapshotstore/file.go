package snapshotstore

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/google/renameio/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/customer-records-go/records"
)

var (
	// ErrWritingSnapshotFileFailed is returned when the snapshot file cannot be written.
	ErrWritingSnapshotFileFailed = errors.New("writing snapshot file failed")

	// ErrReadingSnapshotFileFailed is returned when the snapshot file cannot be read or decoded.
	ErrReadingSnapshotFileFailed = errors.New("reading snapshot file failed")
)

const snapshotFileMode = 0o644

// snapshotEnvelope is the on-disk JSON layout of an exported registry snapshot.
type snapshotEnvelope struct {
	TakenAt       time.Time       `json:"taken_at"`
	CustomerCount int             `json:"customer_count"`
	Data          json.RawMessage `json:"data"`
}

// WriteFile atomically exports a registry snapshot to a JSON file.
// The file is written to a temp file first and renamed into place,
// so readers never observe a partially written snapshot.
func WriteFile(path string, snapshot records.RegistrySnapshot) error {
	if validateErr := snapshot.Validate(); validateErr != nil {
		return validateErr
	}

	envelope := snapshotEnvelope{
		TakenAt:       snapshot.TakenAt,
		CustomerCount: snapshot.CustomerCount,
		Data:          snapshot.Data,
	}

	encoded, marshalErr := jsoniter.ConfigFastest.Marshal(envelope)
	if marshalErr != nil {
		return errors.Join(ErrWritingSnapshotFileFailed, marshalErr)
	}

	if writeErr := renameio.WriteFile(path, encoded, snapshotFileMode); writeErr != nil {
		return errors.Join(ErrWritingSnapshotFileFailed, writeErr)
	}

	return nil
}

// ReadFile imports a registry snapshot from a JSON file written by WriteFile.
func ReadFile(path string) (records.RegistrySnapshot, error) {
	var empty records.RegistrySnapshot

	encoded, readErr := os.ReadFile(path)
	if readErr != nil {
		return empty, errors.Join(ErrReadingSnapshotFileFailed, readErr)
	}

	var envelope snapshotEnvelope
	if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(encoded, &envelope); unmarshalErr != nil {
		return empty, errors.Join(ErrReadingSnapshotFileFailed, unmarshalErr)
	}

	snapshot := records.RegistrySnapshot{
		Data:          envelope.Data,
		CustomerCount: envelope.CustomerCount,
		TakenAt:       envelope.TakenAt,
	}

	if validateErr := snapshot.Validate(); validateErr != nil {
		return empty, errors.Join(ErrReadingSnapshotFileFailed, validateErr)
	}

	return snapshot, nil
}
