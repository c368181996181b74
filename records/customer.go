package records

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// CustomerReader is the read-only capability over a customer record.
//
// It is the only way a customer held by a Records registry surfaces to client
// code: no mutating method is reachable through it, so the handle can be passed
// around freely without allowing uncontrolled external mutation.
type CustomerReader interface {
	ID() uuid.UUID
	Name() string
	Email() string
	Attribute(key string) (string, bool)
	Attributes() map[string]string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Revision() RevisionUint
}

// Customer is a mutable customer record.
//
// All fields are unexported and all mutators are unexported: only the owning
// Records registry mutates a Customer, and it hands out CustomerReader or
// CustomerSnapshot values instead of the record itself.
type Customer struct {
	id         uuid.UUID
	name       string
	email      string
	attributes map[string]string
	createdAt  time.Time
	updatedAt  time.Time
	revision   RevisionUint
}

// BuildCustomer is a factory method for Customer.
//
// Returns an error if the id is the nil uuid or the name is empty.
// The new record starts at revision 1.
func BuildCustomer(id uuid.UUID, name string, email string) (*Customer, error) {
	if id == uuid.Nil {
		return nil, ErrNilCustomerID
	}

	if name == "" {
		return nil, ErrEmptyCustomerName
	}

	now := time.Now()

	return &Customer{
		id:         id,
		name:       name,
		email:      email,
		attributes: make(map[string]string),
		createdAt:  now,
		updatedAt:  now,
		revision:   1,
	}, nil
}

// ID returns the customer id.
func (c *Customer) ID() uuid.UUID {
	return c.id
}

// Name returns the customer name.
func (c *Customer) Name() string {
	return c.name
}

// Email returns the customer email.
func (c *Customer) Email() string {
	return c.email
}

// Attribute returns the value stored under key and whether it is set.
func (c *Customer) Attribute(key string) (string, bool) {
	val, ok := c.attributes[key]
	return val, ok
}

// Attributes returns a copy of the attribute map, never the internal map itself.
func (c *Customer) Attributes() map[string]string {
	copied := make(map[string]string, len(c.attributes))
	maps.Copy(copied, c.attributes)

	return copied
}

// CreatedAt returns when the record was created.
func (c *Customer) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns when the record was last mutated.
func (c *Customer) UpdatedAt() time.Time {
	return c.updatedAt
}

// Revision returns the mutation revision of the record.
func (c *Customer) Revision() RevisionUint {
	return c.revision
}

// rename changes the customer name. Callers must hold the registry lock.
func (c *Customer) rename(newName string) error {
	if newName == "" {
		return ErrEmptyCustomerName
	}

	c.name = newName
	c.bumpRevision()

	return nil
}

// changeEmail replaces the customer email. Callers must hold the registry lock.
func (c *Customer) changeEmail(newEmail string) {
	c.email = newEmail
	c.bumpRevision()
}

// setAttribute stores a key/value pair. Callers must hold the registry lock.
func (c *Customer) setAttribute(key string, val string) error {
	if key == "" {
		return ErrEmptyAttributeKey
	}

	c.attributes[key] = val
	c.bumpRevision()

	return nil
}

// removeAttribute deletes a key if it is set. Callers must hold the registry lock.
// A missing key is a no-op and does not bump the revision.
func (c *Customer) removeAttribute(key string) {
	if _, ok := c.attributes[key]; !ok {
		return
	}

	delete(c.attributes, key)
	c.bumpRevision()
}

func (c *Customer) bumpRevision() {
	c.revision++
	c.updatedAt = time.Now()
}

var _ CustomerReader = (*Customer)(nil)
