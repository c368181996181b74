package records

import (
	"encoding/json"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrInvalidSnapshotJSON is returned when registry snapshot data is malformed or invalid.
	ErrInvalidSnapshotJSON = errors.New("snapshot json is not valid")

	// ErrInvalidSnapshotID is returned when a customer snapshot carries an id that is not a uuid.
	ErrInvalidSnapshotID = errors.New("snapshot customer id is not a valid uuid")

	// ErrInvalidSnapshotRevision is returned when a customer snapshot carries revision 0.
	// Records start at revision 1 by construction.
	ErrInvalidSnapshotRevision = errors.New("snapshot revision must be at least 1")
)

// CustomerSnapshots is an alias type for a slice of CustomerSnapshot.
type CustomerSnapshots = []CustomerSnapshot

// CustomerSnapshot is a DTO (data transfer object): a detached value copy of a customer record.
//
// It is built on scalars and owned copies so that handing it to client code or a storage
// engine can never expose the registry's internal state. While its properties are exported,
// it should only be constructed with the supplied factory methods:
//   - BuildCustomerSnapshot
//   - Records.SnapshotOf
type CustomerSnapshot struct {
	ID         string
	Name       string
	Email      string
	Attributes map[string]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Revision   RevisionUint
}

// BuildCustomerSnapshot is a factory method for CustomerSnapshot.
//
// It deep-copies the attributes map, so later mutation of the source record
// cannot show through the snapshot and vice versa.
// Returns an error if the id is not a valid uuid, the name is empty,
// or the revision is 0 (records start at revision 1).
func BuildCustomerSnapshot(
	id string,
	name string,
	email string,
	attributes map[string]string,
	createdAt time.Time,
	updatedAt time.Time,
	revision RevisionUint,
) (CustomerSnapshot, error) {

	if _, parseErr := uuid.Parse(id); parseErr != nil {
		return CustomerSnapshot{}, ErrInvalidSnapshotID
	}

	if name == "" {
		return CustomerSnapshot{}, ErrEmptyCustomerName
	}

	if revision == 0 {
		return CustomerSnapshot{}, ErrInvalidSnapshotRevision
	}

	copied := make(map[string]string, len(attributes))
	maps.Copy(copied, attributes)

	return CustomerSnapshot{
		ID:         id,
		Name:       name,
		Email:      email,
		Attributes: copied,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Revision:   revision,
	}, nil
}

// snapshotOfCustomer builds a CustomerSnapshot from a record. Callers must hold the registry lock.
func snapshotOfCustomer(customer *Customer) CustomerSnapshot {
	return CustomerSnapshot{
		ID:         customer.id.String(),
		Name:       customer.name,
		Email:      customer.email,
		Attributes: customer.Attributes(),
		CreatedAt:  customer.createdAt,
		UpdatedAt:  customer.updatedAt,
		Revision:   customer.revision,
	}
}

// RegistrySnapshot represents a full export of a Records registry at a point in time.
// The customer snapshots are serialized as JSON so the snapshot can be persisted
// and shipped around without referencing any live registry state.
type RegistrySnapshot struct {
	Data          json.RawMessage // Serialized CustomerSnapshots as JSON
	CustomerCount int             // Number of customers in the snapshot
	TakenAt       time.Time       // When this snapshot was taken
}

// Validate ensures the snapshot has valid data for storage operations.
func (s RegistrySnapshot) Validate() error {
	if !jsoniter.ConfigFastest.Valid(s.Data) {
		return ErrInvalidSnapshotJSON
	}

	return nil
}

// Customers deserializes the snapshot data back into customer snapshots.
func (s RegistrySnapshot) Customers() (CustomerSnapshots, error) {
	var customers CustomerSnapshots

	if err := jsoniter.ConfigFastest.Unmarshal(s.Data, &customers); err != nil {
		return nil, errors.Join(ErrInvalidSnapshotJSON, err)
	}

	return customers, nil
}

// BuildRegistrySnapshot creates a new RegistrySnapshot from detached customer snapshots.
func BuildRegistrySnapshot(customers CustomerSnapshots) (RegistrySnapshot, error) {
	data, marshalErr := jsoniter.ConfigFastest.Marshal(customers)
	if marshalErr != nil {
		return RegistrySnapshot{}, errors.Join(ErrInvalidSnapshotJSON, marshalErr)
	}

	snapshot := RegistrySnapshot{
		Data:          data,
		CustomerCount: len(customers),
		TakenAt:       time.Now(),
	}

	if err := snapshot.Validate(); err != nil {
		return RegistrySnapshot{}, err
	}

	return snapshot, nil
}
