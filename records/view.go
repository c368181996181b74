package records

import (
	"github.com/google/uuid"
)

// View is an unmodifiable view over a Records registry.
//
// It implements the same Reader and Mutator operation set as the registry
// itself, so it can be passed wherever a registry is expected - but every
// mutation attempt fails with ErrReadOnlyView at the point of mutation,
// without altering any state. Reads delegate to the live registry, so the
// view always reflects the current contents.
type View struct {
	records *Records
}

// Len returns the number of registered customers.
func (v View) Len() int {
	return v.records.Len()
}

// Has reports whether a customer is registered under the given name.
func (v View) Has(name string) bool {
	return v.records.Has(name)
}

// Names returns a sorted copy of all registered names.
func (v View) Names() []string {
	return v.records.Names()
}

// Customer returns the record registered under the given name as a read-only capability.
func (v View) Customer(name string) (CustomerReader, error) {
	return v.records.Customer(name)
}

// SnapshotOf returns a detached value copy of the record registered under the given name.
func (v View) SnapshotOf(name string) (CustomerSnapshot, error) {
	return v.records.SnapshotOf(name)
}

// Select returns detached snapshots of all customers matching the filter, ordered by name.
func (v View) Select(filter Filter) CustomerSnapshots {
	return v.records.Select(filter)
}

// Snapshot exports the full registry as a RegistrySnapshot.
func (v View) Snapshot() (RegistrySnapshot, error) {
	return v.records.Snapshot()
}

// Add always fails with ErrReadOnlyView.
func (v View) Add(_ uuid.UUID, _ string, _ string) error {
	return ErrReadOnlyView
}

// Rename always fails with ErrReadOnlyView.
func (v View) Rename(_ string, _ string) error {
	return ErrReadOnlyView
}

// ChangeEmail always fails with ErrReadOnlyView.
func (v View) ChangeEmail(_ string, _ string) error {
	return ErrReadOnlyView
}

// SetAttribute always fails with ErrReadOnlyView.
func (v View) SetAttribute(_ string, _ string, _ string) error {
	return ErrReadOnlyView
}

// RemoveAttribute always fails with ErrReadOnlyView.
func (v View) RemoveAttribute(_ string, _ string) error {
	return ErrReadOnlyView
}

// Remove always fails with ErrReadOnlyView.
func (v View) Remove(_ string) error {
	return ErrReadOnlyView
}

var _ Reader = View{}
var _ Mutator = View{}
