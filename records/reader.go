package records

import (
	"time"

	"github.com/google/uuid"
)

// liveCustomerReader is the CustomerReader that Records.Customer hands out.
//
// It stays live: reads reflect later registry-controlled mutation of the
// record. Every accessor takes the registry's read lock, so a handle held in
// one goroutine is safe to use while another goroutine mutates through the
// registry. The handle keeps following its record across a Rename; after
// Remove it reports the record's last state.
type liveCustomerReader struct {
	registry *Records
	customer *Customer
}

// ID returns the customer id.
func (lr liveCustomerReader) ID() uuid.UUID {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.id
}

// Name returns the customer name.
func (lr liveCustomerReader) Name() string {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.name
}

// Email returns the customer email.
func (lr liveCustomerReader) Email() string {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.email
}

// Attribute returns the value stored under key and whether it is set.
func (lr liveCustomerReader) Attribute(key string) (string, bool) {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.Attribute(key)
}

// Attributes returns a copy of the attribute map, never the internal map itself.
func (lr liveCustomerReader) Attributes() map[string]string {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.Attributes()
}

// CreatedAt returns when the record was created.
func (lr liveCustomerReader) CreatedAt() time.Time {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.createdAt
}

// UpdatedAt returns when the record was last mutated.
func (lr liveCustomerReader) UpdatedAt() time.Time {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.updatedAt
}

// Revision returns the mutation revision of the record.
func (lr liveCustomerReader) Revision() RevisionUint {
	lr.registry.mu.RLock()
	defer lr.registry.mu.RUnlock()

	return lr.customer.revision
}

var _ CustomerReader = liveCustomerReader{}
