package records

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Reader is the read-only operation set over a customer registry.
//
// Every result is either a scalar, an owned copy, or a CustomerReader:
// no method returns a handle to the registry's internal mutable state.
type Reader interface {
	Len() int
	Has(name string) bool
	Names() []string
	Customer(name string) (CustomerReader, error)
	SnapshotOf(name string) (CustomerSnapshot, error)
	Select(filter Filter) CustomerSnapshots
	Snapshot() (RegistrySnapshot, error)
}

// Mutator is the mutating operation set over a customer registry.
// All mutations of customer records route through it, so the owning registry
// stays in control of every state change.
type Mutator interface {
	Add(id uuid.UUID, name string, email string) error
	Rename(name string, newName string) error
	ChangeEmail(name string, newEmail string) error
	SetAttribute(name string, key string, val string) error
	RemoveAttribute(name string, key string) error
	Remove(name string) error
}

// Records is a registry of customer records keyed by unique name.
//
// The registry owns its records exclusively: lookups surface customers as
// CustomerReader or as detached CustomerSnapshot values, and all mutations
// go through the registry under its lock. Handing a Records to code that
// should only read is done via View().
type Records struct {
	mu        sync.RWMutex
	customers map[string]*Customer
}

// BuildRecords creates an empty customer registry.
func BuildRecords() *Records {
	return &Records{
		customers: make(map[string]*Customer),
	}
}

// RestoreRecords rebuilds a registry from a RegistrySnapshot, preserving
// ids, attributes, timestamps and revisions.
func RestoreRecords(snapshot RegistrySnapshot) (*Records, error) {
	customerSnapshots, err := snapshot.Customers()
	if err != nil {
		return nil, err
	}

	r := BuildRecords()

	for _, snap := range customerSnapshots {
		customer, restoreErr := restoreCustomer(snap)
		if restoreErr != nil {
			return nil, restoreErr
		}

		if _, taken := r.customers[customer.name]; taken {
			return nil, ErrCustomerAlreadyExists
		}

		r.customers[customer.name] = customer
	}

	return r, nil
}

// restoreCustomer rebuilds a record from its detached snapshot.
func restoreCustomer(snap CustomerSnapshot) (*Customer, error) {
	id, parseErr := uuid.Parse(snap.ID)
	if parseErr != nil {
		return nil, ErrInvalidSnapshotID
	}

	customer, buildErr := BuildCustomer(id, snap.Name, snap.Email)
	if buildErr != nil {
		return nil, buildErr
	}

	for key, val := range snap.Attributes {
		customer.attributes[key] = val
	}

	customer.createdAt = snap.CreatedAt
	customer.updatedAt = snap.UpdatedAt
	customer.revision = snap.Revision

	return customer, nil
}

// Add registers a new customer under the given name.
// Returns ErrCustomerAlreadyExists if the name is already taken.
func (r *Records) Add(id uuid.UUID, name string, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.customers[name]; taken {
		return ErrCustomerAlreadyExists
	}

	customer, buildErr := BuildCustomer(id, name, email)
	if buildErr != nil {
		return buildErr
	}

	r.customers[name] = customer

	return nil
}

// Len returns the number of registered customers.
func (r *Records) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.customers)
}

// Has reports whether a customer is registered under the given name.
func (r *Records) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, found := r.customers[name]

	return found
}

// Names returns a sorted copy of all registered names, never the internal key set.
func (r *Records) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedNames(r.customers)
}

// Customer returns the record registered under the given name as a read-only capability.
// The concrete mutable record never escapes the registry; the returned reader
// synchronizes every access with the registry lock, so the handle is safe to
// hold across concurrent registry-controlled mutation.
func (r *Records) Customer(name string) (CustomerReader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, found := r.customers[name]
	if !found {
		return nil, ErrCustomerNotFound
	}

	return liveCustomerReader{registry: r, customer: customer}, nil
}

// SnapshotOf returns a detached value copy of the record registered under the given name.
func (r *Records) SnapshotOf(name string) (CustomerSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, found := r.customers[name]
	if !found {
		return CustomerSnapshot{}, ErrCustomerNotFound
	}

	return snapshotOfCustomer(customer), nil
}

// Select returns detached snapshots of all customers matching the filter, ordered by name.
func (r *Records) Select(filter Filter) CustomerSnapshots {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := make(CustomerSnapshots, 0)

	for _, name := range sortedNames(r.customers) {
		customer := r.customers[name]

		if filter.Matches(customer) {
			selected = append(selected, snapshotOfCustomer(customer))
		}
	}

	return selected
}

// Snapshot exports the full registry as a RegistrySnapshot, ordered by name.
func (r *Records) Snapshot() (RegistrySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customerSnapshots := make(CustomerSnapshots, 0, len(r.customers))

	for _, name := range sortedNames(r.customers) {
		customerSnapshots = append(customerSnapshots, snapshotOfCustomer(r.customers[name]))
	}

	return BuildRegistrySnapshot(customerSnapshots)
}

// Rename re-registers a customer under a new name.
// Returns ErrCustomerNotFound if no customer is registered under name and
// ErrCustomerAlreadyExists if the new name is already taken.
func (r *Records) Rename(name string, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, found := r.customers[name]
	if !found {
		return ErrCustomerNotFound
	}

	if name == newName {
		return nil // nothing to do
	}

	if _, taken := r.customers[newName]; taken {
		return ErrCustomerAlreadyExists
	}

	if err := customer.rename(newName); err != nil {
		return err
	}

	delete(r.customers, name)
	r.customers[newName] = customer

	return nil
}

// ChangeEmail replaces the email of the customer registered under the given name.
func (r *Records) ChangeEmail(name string, newEmail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, found := r.customers[name]
	if !found {
		return ErrCustomerNotFound
	}

	customer.changeEmail(newEmail)

	return nil
}

// SetAttribute stores a key/value pair on the customer registered under the given name.
func (r *Records) SetAttribute(name string, key string, val string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, found := r.customers[name]
	if !found {
		return ErrCustomerNotFound
	}

	return customer.setAttribute(key, val)
}

// RemoveAttribute deletes a key from the customer registered under the given name.
func (r *Records) RemoveAttribute(name string, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	customer, found := r.customers[name]
	if !found {
		return ErrCustomerNotFound
	}

	customer.removeAttribute(key)

	return nil
}

// Remove unregisters the customer registered under the given name.
func (r *Records) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.customers[name]; !found {
		return ErrCustomerNotFound
	}

	delete(r.customers, name)

	return nil
}

// View returns an unmodifiable view over the registry.
// Reads delegate to the live registry; every mutation attempt fails with ErrReadOnlyView.
func (r *Records) View() View {
	return View{records: r}
}

func sortedNames(customers map[string]*Customer) []string {
	names := make([]string, 0, len(customers))

	for name := range customers {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

var _ Reader = (*Records)(nil)
var _ Mutator = (*Records)(nil)
