package records

import (
	"slices"
	"time"
)

type FilterNameString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter is an immutable set of matching criteria for customer records.
// It can only be constructed through BuildCustomerFilter and is safe to share:
// no method exposes its internals for mutation.
type Filter struct {
	items        []FilterItem
	createdFrom  time.Time
	createdUntil time.Time
}

func (f Filter) Items() []FilterItem {
	return slices.Clone(f.items)
}

func (f Filter) CreatedFrom() time.Time {
	return f.createdFrom
}

func (f Filter) CreatedUntil() time.Time {
	return f.createdUntil
}

// Matches reports whether the given customer satisfies the filter.
// An empty filter matches every customer.
func (f Filter) Matches(customer CustomerReader) bool {
	if !f.createdFrom.IsZero() && customer.CreatedAt().Before(f.createdFrom) {
		return false
	}

	if !f.createdUntil.IsZero() && customer.CreatedAt().After(f.createdUntil) {
		return false
	}

	if len(f.items) == 0 {
		return true
	}

	for _, item := range f.items {
		if item.matches(customer) {
			return true
		}
	}

	return false
}

/***** FilterItem *****/

type FilterItem struct {
	names                  []FilterNameString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) Names() []FilterNameString {
	return slices.Clone(fi.names)
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return slices.Clone(fi.predicates)
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

func (fi FilterItem) matches(customer CustomerReader) bool {
	if len(fi.names) > 0 && !slices.Contains(fi.names, customer.Name()) {
		return false
	}

	if len(fi.predicates) == 0 {
		return true
	}

	matched := 0

	for _, predicate := range fi.predicates {
		if val, ok := customer.Attribute(predicate.key); ok && val == predicate.val {
			matched++
		}
	}

	if fi.allPredicatesMustMatch {
		return matched == len(fi.predicates)
	}

	return matched > 0
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic customer filter to be used by the in-memory registry
// and by DB type-specific store implementations to build queries for the specific
// query language, e.g.: Postgres, Mysql, ...
// It is designed with the idea to only allow "useful" filter combinations:
//
//   - empty filter
//   - (name)
//   - (name OR name...)
//   - (predicate)
//   - (predicate OR predicate...)
//   - (predicate AND predicate...)
//   - (name AND predicate)
//   - (name AND (predicate OR predicate...))
//   - (name AND (predicate AND predicate...))
//   - ((name OR name...) AND (predicate OR predicate...))
//   - ((name OR name...) AND (predicate AND predicate...))
//   - ((name AND predicate) OR (name AND predicate)...) -> multiple FilterItem(s)
//
// plus an optional created-from/created-until time range.
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyCustomer directly creates an empty Filter.
	MatchingAnyCustomer() Filter

	// CreatedFrom restricts the filter to customers created at or after the given time.
	CreatedFrom(from time.Time) FilterBuilderWithFromTime

	// CreatedUntil restricts the filter to customers created at or before the given time.
	CreatedUntil(until time.Time) CompletedFilterBuilder
}

type FilterBuilderWithFromTime interface {
	// AndCreatedUntil restricts the filter to customers created at or before the given time.
	AndCreatedUntil(until time.Time) CompletedFilterBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

type CompletedFilterBuilder interface {
	// Finalize returns the Filter.
	Finalize() Filter
}

type EmptyFilterItemBuilder interface {
	// AnyNameOf adds one or multiple names to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty names ("")
	//	- sorting the names
	//	- removing duplicate names
	AnyNameOf(name FilterNameString, names ...FilterNameString) FilterItemBuilderLackingPredicates

	// AnyAttributeOf adds one or multiple FilterPredicate(s) to the current FilterItem,
	// expecting ANY predicate to match.
	//
	// It sanitizes the input:
	//	- removing empty/partial FilterPredicate(s) (key or val is "")
	//	- sorting the FilterPredicate(s)
	//	- removing duplicate FilterPredicate(s)
	AnyAttributeOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingNames

	// AllAttributesOf adds one or multiple FilterPredicate(s) to the current FilterItem,
	// expecting ALL predicates to match.
	AllAttributesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingNames
}

type FilterItemBuilderLackingPredicates interface {
	// AndAnyAttributeOf adds one or multiple FilterPredicate(s) to the current FilterItem,
	// expecting ANY predicate to match.
	AndAnyAttributeOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// AndAllAttributesOf adds one or multiple FilterPredicate(s) to the current FilterItem,
	// expecting ALL predicates to match.
	AndAllAttributesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter once it has at least one FilterItem with at least one name OR one predicate.
	Finalize() Filter
}

type FilterItemBuilderLackingNames interface {
	// AndAnyNameOf adds one or multiple names to the current FilterItem.
	AndAnyNameOf(name FilterNameString, names ...FilterNameString) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter once it has at least one FilterItem with at least one name OR one predicate.
	Finalize() Filter
}

type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter once it has at least one FilterItem with at least one name OR one predicate.
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder.
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
	itemStarted       bool
}

// BuildCustomerFilter creates a FilterBuilder which must eventually be finalized
// with Finalize() or MatchingAnyCustomer().
func BuildCustomerFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts a new FilterItem.
func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}
	fb.itemStarted = true

	return fb
}

// MatchingAnyCustomer directly creates an empty Filter.
func (fb filterBuilder) MatchingAnyCustomer() Filter {
	return fb.filter
}

// CreatedFrom restricts the filter to customers created at or after the given time.
func (fb filterBuilder) CreatedFrom(from time.Time) FilterBuilderWithFromTime {
	fb.filter.createdFrom = from

	return fb
}

// CreatedUntil restricts the filter to customers created at or before the given time.
func (fb filterBuilder) CreatedUntil(until time.Time) CompletedFilterBuilder {
	fb.filter.createdUntil = until

	return fb
}

// AndCreatedUntil restricts the filter to customers created at or before the given time.
func (fb filterBuilder) AndCreatedUntil(until time.Time) CompletedFilterBuilder {
	fb.filter.createdUntil = until

	return fb
}

// AnyNameOf adds one or multiple names to the current FilterItem expecting ANY name to match.
//
// It sanitizes the input:
//   - removing empty names ("")
//   - sorting the names
//   - removing duplicate names
func (fb filterBuilder) AnyNameOf(
	name FilterNameString,
	names ...FilterNameString,
) FilterItemBuilderLackingPredicates {

	fb.currentFilterItem.names = append(
		fb.currentFilterItem.names,
		fb.sanitizeNames(name, names...)...,
	)

	return fb
}

// AndAnyNameOf adds one or multiple names to the current FilterItem expecting ANY name to match.
func (fb filterBuilder) AndAnyNameOf(
	name FilterNameString,
	names ...FilterNameString,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.names = append(
		fb.currentFilterItem.names,
		fb.sanitizeNames(name, names...)...,
	)

	return fb
}

func (fb filterBuilder) sanitizeNames(
	name FilterNameString,
	names ...FilterNameString,
) []FilterNameString {

	allNames := append([]FilterNameString{name}, names...)
	allNames = slices.DeleteFunc(
		allNames,
		func(n FilterNameString) bool {
			return n == ""
		})
	slices.Sort(allNames)
	allNames = slices.Compact(allNames)
	allNames = slices.Clip(allNames)

	return allNames
}

// AnyAttributeOf adds one or multiple FilterPredicate(s) to the current FilterItem
// expecting ANY predicate to match.
//
// It sanitizes the input:
//   - removing empty/partial FilterPredicate(s) (key or val is "")
//   - sorting the FilterPredicate(s)
//   - removing duplicate FilterPredicate(s)
func (fb filterBuilder) AnyAttributeOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingNames {

	fb.currentFilterItem.predicates = append(
		fb.currentFilterItem.predicates,
		fb.sanitizePredicates(predicate, predicates...)...,
	)

	return fb
}

// AndAnyAttributeOf adds one or multiple FilterPredicate(s) to the current FilterItem
// expecting ANY predicate to match.
func (fb filterBuilder) AndAnyAttributeOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.predicates = append(
		fb.currentFilterItem.predicates,
		fb.sanitizePredicates(predicate, predicates...)...,
	)

	return fb
}

// AllAttributesOf adds one or multiple FilterPredicate(s) to the current FilterItem
// expecting ALL predicates to match.
func (fb filterBuilder) AllAttributesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingNames {

	fb.currentFilterItem.allPredicatesMustMatch = true

	fb.currentFilterItem.predicates = append(
		fb.currentFilterItem.predicates,
		fb.sanitizePredicates(predicate, predicates...)...,
	)

	return fb
}

// AndAllAttributesOf adds one or multiple FilterPredicate(s) to the current FilterItem
// expecting ALL predicates to match.
func (fb filterBuilder) AndAllAttributesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.allPredicatesMustMatch = true

	fb.currentFilterItem.predicates = append(
		fb.currentFilterItem.predicates,
		fb.sanitizePredicates(predicate, predicates...)...,
	)

	return fb
}

func (fb filterBuilder) sanitizePredicates(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) []FilterPredicate {

	allPredicates := append([]FilterPredicate{predicate}, predicates...)
	allPredicates = slices.DeleteFunc(allPredicates, func(p FilterPredicate) bool { return len(p.key) == 0 || len(p.val) == 0 })
	slices.SortFunc(
		allPredicates,
		func(a, b FilterPredicate) int {
			if a.key > b.key {
				return 1
			}

			if a.key < b.key {
				return -1
			}

			return 0
		})

	allPredicates = slices.Compact(allPredicates)
	allPredicates = slices.Clip(allPredicates)

	return allPredicates
}

// OrMatching finalizes the current FilterItem and starts a new one.
func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(fb.filter.items, fb.currentFilterItem)
	fb.currentFilterItem = FilterItem{}

	return fb
}

// Finalize returns the Filter once it has at least one FilterItem with at least one name OR one predicate.
func (fb filterBuilder) Finalize() Filter {
	if fb.itemStarted {
		fb.filter.items = append(fb.filter.items, fb.currentFilterItem)
	}

	return fb.filter
}
