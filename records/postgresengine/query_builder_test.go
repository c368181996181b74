package postgresengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/customer-records-go/records"
)

func Test_BuildSelectQuery_BindsAttributePredicates(t *testing.T) {
	cs := CustomerStore{customersTableName: defaultCustomersTableName}

	filter := records.BuildCustomerFilter().
		Matching().
		AnyAttributeOf(records.P("tier", "gold")).
		Finalize()

	sqlQuery, err := cs.buildSelectQuery(filter)

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `attributes @> '{"tier":"gold"}'`)
	assert.Contains(t, sqlQuery, `ORDER BY "name" ASC`)
}

func Test_BuildSelectQuery_EscapesQuotesInPredicateValues(t *testing.T) {
	cs := CustomerStore{customersTableName: defaultCustomersTableName}

	filter := records.BuildCustomerFilter().
		Matching().
		AnyAttributeOf(records.P("note", `O'Brien said "hi"`)).
		Finalize()

	sqlQuery, err := cs.buildSelectQuery(filter)

	require.NoError(t, err)

	// the single quote must be escaped and the double quote JSON-encoded,
	// so neither can terminate the SQL literal or the jsonb document
	assert.Contains(t, sqlQuery, `O''Brien`)
	assert.Contains(t, sqlQuery, `\"hi\"`)
	assert.False(t, strings.Contains(sqlQuery, `O'Brien`), "unescaped quote must not survive")
}

func Test_BuildSelectQuery_MatchingAnyCustomer(t *testing.T) {
	cs := CustomerStore{customersTableName: defaultCustomersTableName}

	sqlQuery, err := cs.buildSelectQuery(records.BuildCustomerFilter().MatchingAnyCustomer())

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "customers"`)
}
