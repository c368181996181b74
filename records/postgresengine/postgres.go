package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/customer-records-go/records"
	"github.com/AntonStoeckl/customer-records-go/records/postgresengine/internal/adapters"
)

var (
	// ErrNilDatabaseConnection is returned when a store is built with a nil database connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyCustomersTableName is returned when an empty customers table name is supplied.
	ErrEmptyCustomersTableName = errors.New("empty customers table name supplied")

	// ErrBuildingQueryFailed is returned when converting a statement to SQL fails.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingCustomersFailed is returned when the select query fails to execute.
	ErrQueryingCustomersFailed = errors.New("querying customers failed")

	// ErrScanningDBRowFailed is returned when scanning a database row fails.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrBuildingSnapshotFailed is returned when a database row cannot be turned into a customer snapshot.
	ErrBuildingSnapshotFailed = errors.New("building customer snapshot from database row failed")

	// ErrSavingCustomerFailed is returned when the insert or update statement fails to execute.
	ErrSavingCustomerFailed = errors.New("saving customer failed")

	// ErrRemovingCustomerFailed is returned when the delete statement fails to execute.
	ErrRemovingCustomerFailed = errors.New("removing customer failed")

	// ErrGettingRowsAffectedFailed is returned when the rows affected count is unavailable.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
)

const (
	defaultCustomersTableName = "customers"

	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgBuildSnapshotFailed    = "failed to build customer snapshot from database row"
	logMsgBuildWriteQueryFailed  = "failed to build write query"
	logMsgDBExecFailed           = "database execution failed"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgQueryCompleted         = "query completed"
	logMsgCustomerSaved          = "customer saved"
	logMsgCustomerRemoved        = "customer removed"
	logMsgConcurrencyConflict    = "concurrency conflict detected"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "customer store operation: "

	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrCustomerName     = "customer_name"
	logAttrCustomerCount    = "customer_count"
	logAttrDurationMS       = "duration_ms"
	logAttrExpectedRevision = "expected_revision"
	logAttrRowsAffected     = "rows_affected"

	logActionQuery  = "query"
	logActionLoad   = "load"
	logActionSave   = "save"
	logActionRemove = "remove"

	colID         = "id"
	colName       = "name"
	colEmail      = "email"
	colAttributes = "attributes"
	colCreatedAt  = "created_at"
	colUpdatedAt  = "updated_at"
	colRevision   = "revision"

	dialectPostgres = "postgres"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// CustomerStore persists detached customer snapshots in a PostgreSQL table.
//
// It only ever receives and returns records.CustomerSnapshot values, so no
// registry-internal state crosses the storage boundary. Writes are guarded by
// the snapshot's revision for optimistic concurrency control.
type CustomerStore struct {
	db                 adapters.DBAdapter
	customersTableName string
	logger             records.Logger
	contextualLogger   records.ContextualLogger
	metricsCollector   records.MetricsCollector
	tracingCollector   records.TracingCollector
}

type queryResultRow struct {
	id         string
	name       string
	email      string
	attributes []byte
	createdAt  time.Time
	updatedAt  time.Time
	revision   int64
}

// NewCustomerStoreFromPGXPool creates a new CustomerStore using a pgx Pool with optional configuration.
func NewCustomerStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (CustomerStore, error) {
	if db == nil {
		return CustomerStore{}, ErrNilDatabaseConnection
	}

	cs := CustomerStore{
		db:                 adapters.NewPGXAdapter(db),
		customersTableName: defaultCustomersTableName,
	}

	for _, option := range options {
		if err := option(&cs); err != nil {
			return CustomerStore{}, err
		}
	}

	return cs, nil
}

// NewCustomerStoreFromSQLDB creates a new CustomerStore using a sql.DB with optional configuration.
func NewCustomerStoreFromSQLDB(db *sql.DB, options ...Option) (CustomerStore, error) {
	if db == nil {
		return CustomerStore{}, ErrNilDatabaseConnection
	}

	cs := CustomerStore{
		db:                 adapters.NewSQLAdapter(db),
		customersTableName: defaultCustomersTableName,
	}

	for _, option := range options {
		if err := option(&cs); err != nil {
			return CustomerStore{}, err
		}
	}

	return cs, nil
}

// NewCustomerStoreFromSQLX creates a new CustomerStore using a sqlx.DB with optional configuration.
func NewCustomerStoreFromSQLX(db *sqlx.DB, options ...Option) (CustomerStore, error) {
	if db == nil {
		return CustomerStore{}, ErrNilDatabaseConnection
	}

	cs := CustomerStore{
		db:                 adapters.NewSQLXAdapter(db),
		customersTableName: defaultCustomersTableName,
	}

	for _, option := range options {
		if err := option(&cs); err != nil {
			return CustomerStore{}, err
		}
	}

	return cs, nil
}

// Query retrieves customer snapshots matching the records.Filter criteria, ordered by name.
func (cs CustomerStore) Query(ctx context.Context, filter records.Filter) (records.CustomerSnapshots, error) {
	start := time.Now()
	ctx, span := cs.startSpan(ctx, spanNameQuery)

	sqlQuery, buildQueryErr := cs.buildSelectQuery(filter)
	if buildQueryErr != nil {
		cs.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		cs.finishSpan(span, statusError)

		return nil, buildQueryErr
	}

	rows, duration, queryErr := cs.executeQuery(ctx, sqlQuery, logActionQuery)
	if queryErr != nil {
		cs.finishSpan(span, statusError)
		return nil, queryErr
	}
	defer cs.closeRows(ctx, rows)

	snapshots, scanErr := cs.processQueryResults(ctx, rows)
	if scanErr != nil {
		cs.finishSpan(span, statusError)
		return nil, scanErr
	}

	cs.logOperation(ctx, logMsgQueryCompleted,
		logAttrCustomerCount, len(snapshots),
		logAttrDurationMS, toMilliseconds(duration))
	cs.recordDuration(ctx, metricQueryDuration, time.Since(start), logActionQuery, statusSuccess)
	cs.finishSpan(span, statusSuccess)

	return snapshots, nil
}

// Load retrieves the customer snapshot stored under the given name.
// Returns records.ErrCustomerNotFound if no such customer is stored.
func (cs CustomerStore) Load(ctx context.Context, name string) (records.CustomerSnapshot, error) {
	var empty records.CustomerSnapshot

	start := time.Now()
	ctx, span := cs.startSpan(ctx, spanNameLoad)

	selectStmt := goqu.Dialect(dialectPostgres).
		From(cs.customersTableName).
		Select(colID, colName, colEmail, colAttributes, colCreatedAt, colUpdatedAt, colRevision).
		Where(goqu.Ex{colName: name})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		cs.logError(ctx, logMsgBuildSelectQueryFailed, toSQLErr)
		cs.finishSpan(span, statusError)

		return empty, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, duration, queryErr := cs.executeQuery(ctx, sqlQuery, logActionLoad)
	if queryErr != nil {
		cs.finishSpan(span, statusError)
		return empty, queryErr
	}
	defer cs.closeRows(ctx, rows)

	snapshots, scanErr := cs.processQueryResults(ctx, rows)
	if scanErr != nil {
		cs.finishSpan(span, statusError)
		return empty, scanErr
	}

	if len(snapshots) == 0 {
		cs.finishSpan(span, statusSuccess)
		return empty, records.ErrCustomerNotFound
	}

	cs.logOperation(ctx, logMsgQueryCompleted,
		logAttrCustomerName, name,
		logAttrDurationMS, toMilliseconds(duration))
	cs.recordDuration(ctx, metricQueryDuration, time.Since(start), logActionLoad, statusSuccess)
	cs.finishSpan(span, statusSuccess)

	return snapshots[0], nil
}

// Save persists a customer snapshot with optimistic concurrency control.
//
// A snapshot at revision 1 is stored as a fresh insert; a snapshot at a higher
// revision updates the existing row guarded by the previous revision. In both
// cases a stale revision means no rows are affected and records.ErrConcurrencyConflict
// is returned, so lost updates cannot happen silently.
func (cs CustomerStore) Save(ctx context.Context, snapshot records.CustomerSnapshot) error {
	start := time.Now()
	ctx, span := cs.startSpan(ctx, spanNameSave)

	sqlQuery, buildQueryErr := cs.buildSaveQuery(snapshot)
	if buildQueryErr != nil {
		cs.logError(ctx, logMsgBuildWriteQueryFailed, buildQueryErr, logAttrCustomerName, snapshot.Name)
		cs.finishSpan(span, statusError)

		return buildQueryErr
	}

	rowsAffected, duration, execErr := cs.executeWrite(ctx, sqlQuery, logActionSave, ErrSavingCustomerFailed)
	if execErr != nil {
		cs.finishSpan(span, statusError)
		return execErr
	}

	if rowsAffected == 0 {
		cs.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrCustomerName, snapshot.Name,
			logAttrExpectedRevision, snapshot.Revision,
			logAttrRowsAffected, rowsAffected)
		cs.incrementCounter(ctx, metricConcurrencyConflicts, logActionSave)
		cs.finishSpan(span, statusConflict)

		return records.ErrConcurrencyConflict
	}

	cs.logOperation(ctx, logMsgCustomerSaved,
		logAttrCustomerName, snapshot.Name,
		logAttrDurationMS, toMilliseconds(duration))
	cs.recordDuration(ctx, metricWriteDuration, time.Since(start), logActionSave, statusSuccess)
	cs.finishSpan(span, statusSuccess)

	return nil
}

// Remove deletes the customer stored under the given name, guarded by the expected revision.
// Returns records.ErrConcurrencyConflict if no row with that name and revision exists.
func (cs CustomerStore) Remove(ctx context.Context, name string, expectedRevision records.RevisionUint) error {
	start := time.Now()
	ctx, span := cs.startSpan(ctx, spanNameRemove)

	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(cs.customersTableName).
		Where(goqu.Ex{
			colName:     name,
			colRevision: expectedRevision,
		})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		cs.logError(ctx, logMsgBuildWriteQueryFailed, toSQLErr, logAttrCustomerName, name)
		cs.finishSpan(span, statusError)

		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, duration, execErr := cs.executeWrite(ctx, sqlQuery, logActionRemove, ErrRemovingCustomerFailed)
	if execErr != nil {
		cs.finishSpan(span, statusError)
		return execErr
	}

	if rowsAffected == 0 {
		cs.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrCustomerName, name,
			logAttrExpectedRevision, expectedRevision,
			logAttrRowsAffected, rowsAffected)
		cs.incrementCounter(ctx, metricConcurrencyConflicts, logActionRemove)
		cs.finishSpan(span, statusConflict)

		return records.ErrConcurrencyConflict
	}

	cs.logOperation(ctx, logMsgCustomerRemoved,
		logAttrCustomerName, name,
		logAttrDurationMS, toMilliseconds(duration))
	cs.recordDuration(ctx, metricWriteDuration, time.Since(start), logActionRemove, statusSuccess)
	cs.finishSpan(span, statusSuccess)

	return nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (cs CustomerStore) executeQuery(ctx context.Context, sqlQuery string, action string) (
	adapters.DBRows,
	queryDuration,
	error,
) {

	start := time.Now()
	rows, queryErr := cs.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	cs.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if queryErr != nil {
		cs.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		cs.incrementErrorCounter(ctx, action)

		return nil, duration, errors.Join(ErrQueryingCustomersFailed, queryErr)
	}

	return rows, duration, nil
}

// executeWrite executes the SQL write statement and returns rows affected and duration.
func (cs CustomerStore) executeWrite(
	ctx context.Context,
	sqlQuery string,
	action string,
	failure error,
) (rowsAffectedInt64, queryDuration, error) {

	start := time.Now()
	result, execErr := cs.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	cs.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if execErr != nil {
		cs.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		cs.incrementErrorCounter(ctx, action)

		return 0, duration, errors.Join(failure, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		cs.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, duration, errors.Join(ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (cs CustomerStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		cs.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// processQueryResults converts database rows into detached customer snapshots.
func (cs CustomerStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	records.CustomerSnapshots,
	error,
) {

	result := queryResultRow{}
	snapshots := make(records.CustomerSnapshots, 0)

	for rows.Next() {
		rowScanErr := rows.Scan(
			&result.id, &result.name, &result.email,
			&result.attributes, &result.createdAt, &result.updatedAt, &result.revision)
		if rowScanErr != nil {
			cs.logError(ctx, logMsgScanRowFailed, rowScanErr)

			return nil, errors.Join(ErrScanningDBRowFailed, rowScanErr)
		}

		attributes := make(map[string]string)
		if len(result.attributes) > 0 {
			if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(result.attributes, &attributes); unmarshalErr != nil {
				cs.logError(ctx, logMsgBuildSnapshotFailed, unmarshalErr, logAttrCustomerName, result.name)

				return nil, errors.Join(ErrBuildingSnapshotFailed, unmarshalErr)
			}
		}

		snapshot, buildErr := records.BuildCustomerSnapshot(
			result.id, result.name, result.email, attributes,
			result.createdAt, result.updatedAt, records.RevisionUint(result.revision))
		if buildErr != nil {
			cs.logError(ctx, logMsgBuildSnapshotFailed, buildErr, logAttrCustomerName, result.name)

			return nil, errors.Join(ErrBuildingSnapshotFailed, buildErr)
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func (cs CustomerStore) buildSelectQuery(filter records.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(cs.customersTableName).
		Select(colID, colName, colEmail, colAttributes, colCreatedAt, colUpdatedAt, colRevision).
		Order(goqu.I(colName).Asc())

	selectStmt, whereErr := cs.addWhereClause(filter, selectStmt)
	if whereErr != nil {
		return "", whereErr
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (cs CustomerStore) buildSaveQuery(snapshot records.CustomerSnapshot) (sqlQueryString, error) {
	attributesJSON, marshalErr := jsoniter.ConfigFastest.Marshal(snapshot.Attributes)
	if marshalErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, marshalErr)
	}

	builder := goqu.Dialect(dialectPostgres)

	if snapshot.Revision <= 1 {
		insertStmt := builder.
			Insert(cs.customersTableName).
			Cols(colID, colName, colEmail, colAttributes, colCreatedAt, colUpdatedAt, colRevision).
			Vals(goqu.Vals{
				snapshot.ID, snapshot.Name, snapshot.Email, string(attributesJSON),
				snapshot.CreatedAt, snapshot.UpdatedAt, snapshot.Revision,
			}).
			OnConflict(goqu.DoNothing())

		sqlQuery, _, toSQLErr := insertStmt.ToSQL()
		if toSQLErr != nil {
			return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
		}

		return sqlQuery, nil
	}

	updateStmt := builder.
		Update(cs.customersTableName).
		Set(goqu.Record{
			colName:       snapshot.Name,
			colEmail:      snapshot.Email,
			colAttributes: string(attributesJSON),
			colUpdatedAt:  snapshot.UpdatedAt,
			colRevision:   snapshot.Revision,
		}).
		Where(goqu.Ex{
			colID:       snapshot.ID,
			colRevision: snapshot.Revision - 1,
		})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (cs CustomerStore) addWhereClause(
	filter records.Filter,
	selectStmt *goqu.SelectDataset,
) (*goqu.SelectDataset, error) {

	itemsExpressions := make([]goqu.Expression, 0)

	for _, item := range filter.Items() {
		nameExpressions := make([]goqu.Expression, 0)
		predicateExpressions := make([]goqu.Expression, 0)

		for _, name := range item.Names() {
			nameExpressions = append(
				nameExpressions,
				goqu.Ex{colName: name},
			)
		}

		// names must always be filtered with OR ;-)
		namesExpressionList := goqu.Or(nameExpressions...)

		for _, predicate := range item.Predicates() {
			// the predicate pair is marshaled and bound, never interpolated into the SQL text
			predicateJSON, marshalErr := jsoniter.ConfigFastest.Marshal(
				map[string]string{predicate.Key(): predicate.Val()})
			if marshalErr != nil {
				return nil, errors.Join(ErrBuildingQueryFailed, marshalErr)
			}

			predicateExpressions = append(
				predicateExpressions,
				goqu.L(colAttributes+" @> ?", string(predicateJSON)),
			)
		}

		var predicatesExpressionList exp.ExpressionList

		if item.AllPredicatesMustMatch() {
			predicatesExpressionList = goqu.And(predicateExpressions...)
		} else {
			predicatesExpressionList = goqu.Or(predicateExpressions...)
		}

		itemsExpressions = append(
			itemsExpressions,
			goqu.And(namesExpressionList, predicatesExpressionList),
		)
	}

	createdAtExpressions := make([]goqu.Expression, 0)

	if !filter.CreatedFrom().IsZero() {
		createdAtExpressions = append(
			createdAtExpressions,
			goqu.C(colCreatedAt).Gte(filter.CreatedFrom()),
		)
	}

	if !filter.CreatedUntil().IsZero() {
		createdAtExpressions = append(
			createdAtExpressions,
			goqu.C(colCreatedAt).Lte(filter.CreatedUntil()),
		)
	}

	selectStmt = selectStmt.Where(
		goqu.And(
			goqu.Or(itemsExpressions...),
			goqu.And(createdAtExpressions...),
		),
	)

	return selectStmt, nil
}
