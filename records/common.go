package records

import (
	"errors"
)

var (
	// ErrNilCustomerID is returned when a customer is built with the zero UUID.
	ErrNilCustomerID = errors.New("customer id must not be the nil uuid")

	// ErrEmptyCustomerName is returned when a customer name is empty.
	ErrEmptyCustomerName = errors.New("customer name must not be empty")

	// ErrEmptyAttributeKey is returned when an attribute key is empty.
	ErrEmptyAttributeKey = errors.New("attribute key must not be empty")

	// ErrCustomerNotFound is returned when no customer is registered under the given name.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrCustomerAlreadyExists is returned when a name is already taken in the registry.
	ErrCustomerAlreadyExists = errors.New("customer already exists")

	// ErrReadOnlyView is returned when a mutating operation is attempted through a read-only view.
	ErrReadOnlyView = errors.New("mutation attempted through a read-only view")

	// ErrConcurrencyConflict is returned when a write based on a stale revision is rejected.
	ErrConcurrencyConflict = errors.New("concurrency conflict, no rows were affected")
)

// RevisionUint is a type alias for uint, representing the mutation revision of a customer record.
// A freshly built customer starts at revision 1; every mutation increments it by exactly one.
type RevisionUint = uint
