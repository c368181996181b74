// Package records provides a customer registry that never leaks references
// to its internal mutable state.
//
// A returned handle to an object's internal mutable state (an "escaping
// reference") lets external code alter that state outside the owning object's
// control, which breaks encapsulation and is problematic for concurrent
// access. This package closes both escape routes the hard way:
//
//   - Lookups surface customers as CustomerReader, a read-only capability
//     interface with no mutating method, or as CustomerSnapshot, a detached
//     value copy built on scalars and owned maps.
//   - The registry collection itself is exposed through View, an unmodifiable
//     view: reads delegate to the live registry, while every mutation attempt
//     fails with ErrReadOnlyView at the point of mutation.
//
// All mutations route through the owning Records registry under its lock, and
// every mutation bumps the record's revision, which storage engines use for
// optimistic concurrency control.
//
// Key types:
//   - Records: the registry, keyed by unique customer name
//   - CustomerReader: read-only capability over a single record
//   - CustomerSnapshot: detached value copy of a single record
//   - View: unmodifiable view over the whole registry
//   - Filter: immutable matching criteria built with BuildCustomerFilter
//
// Common usage pattern:
//
//	registry := records.BuildRecords()
//	_ = registry.Add(uuid.New(), "Ada Lovelace", "ada@example.com")
//
//	// hand out a read-only view; mutation through it fails
//	view := registry.View()
//	err := view.Rename("Ada Lovelace", "A. King")	// err == records.ErrReadOnlyView
//
//	// select detached snapshots with a filter
//	filter := records.BuildCustomerFilter().
//		Matching().
//		AnyNameOf("Ada Lovelace").
//		Finalize()
//	snapshots := view.Select(filter)
package records
