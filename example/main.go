// Command example demonstrates the customer records registry: building records,
// handing out read-only views and detached snapshots instead of internal state,
// filtering, and persisting a registry snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AntonStoeckl/customer-records-go/records"
	"github.com/AntonStoeckl/customer-records-go/records/snapshotstore"
	"github.com/AntonStoeckl/customer-records-go/records/zerologadapter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "example failed:", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerologadapter.NewDefaultLogger(os.Stdout, zerolog.InfoLevel)

	registry := records.BuildRecords()

	if err := registry.Add(uuid.New(), "Ada Lovelace", "ada@example.com"); err != nil {
		return err
	}

	if err := registry.Add(uuid.New(), "Grace Hopper", "grace@example.com"); err != nil {
		return err
	}

	if err := registry.SetAttribute("Ada Lovelace", "team", "research"); err != nil {
		return err
	}

	logger.Info("registry populated", "customers", registry.Len())

	// A reader never exposes mutable internals: the attributes map is a copy.
	customer, err := registry.Customer("Ada Lovelace")
	if err != nil {
		return err
	}

	attrs := customer.Attributes()
	attrs["team"] = "tampered"

	fresh, err := registry.Customer("Ada Lovelace")
	if err != nil {
		return err
	}

	registryValue, _ := fresh.Attribute("team")
	logger.Info("attribute copy is detached",
		"tampered_copy", attrs["team"],
		"registry_value", registryValue)

	// A View shares the registry's data but rejects every mutation.
	view := registry.View()
	if err := view.Rename("Ada Lovelace", "A. King"); errors.Is(err, records.ErrReadOnlyView) {
		logger.Info("view rejected mutation", "error", err.Error())
	}

	// Filters select detached snapshots, never live records.
	filter := records.BuildCustomerFilter().
		Matching().
		AnyAttributeOf(records.P("team", "research")).
		Finalize()

	for _, snap := range registry.Select(filter) {
		logger.Info("matched customer", "name", snap.Name, "revision", snap.Revision)
	}

	// Persist a full registry snapshot and restore it.
	snapshot, err := registry.Snapshot()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "customer-records-example")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	store, err := snapshotstore.Open(filepath.Join(dir, "snapshots.db"), snapshotstore.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	if err := store.Save(ctx, snapshot); err != nil {
		return err
	}

	loaded, err := store.LoadLatest(ctx)
	if err != nil {
		return err
	}

	restored, err := records.RestoreRecords(loaded)
	if err != nil {
		return err
	}

	logger.Info("registry restored from snapshot", "customers", restored.Len())

	// Atomic file export for handing a snapshot to another process.
	exportPath := filepath.Join(dir, "registry.json")
	if err := snapshotstore.WriteFile(exportPath, snapshot); err != nil {
		return err
	}

	logger.Info("snapshot exported", "path", exportPath)

	return nil
}
