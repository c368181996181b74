// Package snapshotstore provides durable storage for registry snapshots.
//
// Snapshots are detached by construction (scalars plus serialized JSON), so
// persisting and reloading them never touches live registry state. The package
// offers an embedded SQLite store for snapshot history and an atomic file
// export for single-snapshot handoff.
package snapshotstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/AntonStoeckl/customer-records-go/records"
)

var (
	// ErrOpeningStoreFailed is returned when the SQLite database cannot be opened or initialized.
	ErrOpeningStoreFailed = errors.New("opening snapshot store failed")

	// ErrSavingSnapshotFailed is returned when the snapshot save operation fails.
	ErrSavingSnapshotFailed = errors.New("saving snapshot failed")

	// ErrLoadingSnapshotFailed is returned when the snapshot load operation fails.
	ErrLoadingSnapshotFailed = errors.New("loading snapshot failed")

	// ErrPruningSnapshotsFailed is returned when the prune operation fails.
	ErrPruningSnapshotsFailed = errors.New("pruning snapshots failed")

	// ErrNoSnapshots is returned when the store holds no snapshots.
	ErrNoSnapshots = errors.New("no snapshots stored")
)

const (
	logMsgSnapshotSaved  = "registry snapshot saved"
	logMsgSnapshotLoaded = "registry snapshot loaded"
	logMsgPruned         = "registry snapshots pruned"

	logAttrCustomerCount = "customer_count"
	logAttrTakenAt       = "taken_at"
	logAttrKeptCount     = "kept_count"

	schemaDDL = `CREATE TABLE IF NOT EXISTS registry_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at TEXT NOT NULL,
		customer_count INTEGER NOT NULL,
		data BLOB NOT NULL
	)`
)

// Store persists registry snapshots in an embedded SQLite database.
type Store struct {
	db     *sql.DB
	logger records.Logger
}

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
func WithLogger(logger records.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// Open opens (and if needed initializes) a snapshot store at the given path.
// Use ":memory:" for an ephemeral in-process store.
func Open(path string, options ...Option) (*Store, error) {
	db, openErr := sql.Open("sqlite", path)
	if openErr != nil {
		return nil, errors.Join(ErrOpeningStoreFailed, openErr)
	}

	if _, ddlErr := db.Exec(schemaDDL); ddlErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrOpeningStoreFailed, ddlErr)
	}

	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends a registry snapshot to the store.
func (s *Store) Save(ctx context.Context, snapshot records.RegistrySnapshot) error {
	if validateErr := snapshot.Validate(); validateErr != nil {
		return validateErr
	}

	_, execErr := s.db.ExecContext(ctx,
		`INSERT INTO registry_snapshots (taken_at, customer_count, data) VALUES (?, ?, ?)`,
		snapshot.TakenAt.UTC().Format(time.RFC3339Nano),
		snapshot.CustomerCount,
		[]byte(snapshot.Data),
	)
	if execErr != nil {
		return errors.Join(ErrSavingSnapshotFailed, execErr)
	}

	if s.logger != nil {
		s.logger.Info(logMsgSnapshotSaved,
			logAttrCustomerCount, snapshot.CustomerCount,
			logAttrTakenAt, snapshot.TakenAt)
	}

	return nil
}

// LoadLatest returns the most recently saved registry snapshot.
// Returns ErrNoSnapshots when the store is empty.
func (s *Store) LoadLatest(ctx context.Context) (records.RegistrySnapshot, error) {
	var empty records.RegistrySnapshot

	row := s.db.QueryRowContext(ctx,
		`SELECT taken_at, customer_count, data FROM registry_snapshots ORDER BY id DESC LIMIT 1`)

	var takenAt string
	var customerCount int
	var data []byte

	scanErr := row.Scan(&takenAt, &customerCount, &data)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return empty, ErrNoSnapshots
	}

	if scanErr != nil {
		return empty, errors.Join(ErrLoadingSnapshotFailed, scanErr)
	}

	parsedTakenAt, parseErr := time.Parse(time.RFC3339Nano, takenAt)
	if parseErr != nil {
		return empty, errors.Join(ErrLoadingSnapshotFailed, parseErr)
	}

	snapshot := records.RegistrySnapshot{
		Data:          data,
		CustomerCount: customerCount,
		TakenAt:       parsedTakenAt,
	}

	if validateErr := snapshot.Validate(); validateErr != nil {
		return empty, errors.Join(ErrLoadingSnapshotFailed, validateErr)
	}

	if s.logger != nil {
		s.logger.Info(logMsgSnapshotLoaded,
			logAttrCustomerCount, snapshot.CustomerCount,
			logAttrTakenAt, snapshot.TakenAt)
	}

	return snapshot, nil
}

// Prune deletes all but the newest keep snapshots.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}

	_, execErr := s.db.ExecContext(ctx,
		`DELETE FROM registry_snapshots WHERE id NOT IN (
			SELECT id FROM registry_snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	if execErr != nil {
		return errors.Join(ErrPruningSnapshotsFailed, execErr)
	}

	if s.logger != nil {
		s.logger.Info(logMsgPruned, logAttrKeptCount, keep)
	}

	return nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registry_snapshots`)

	var count int
	if scanErr := row.Scan(&count); scanErr != nil {
		return 0, errors.Join(ErrLoadingSnapshotFailed, scanErr)
	}

	return count, nil
}
