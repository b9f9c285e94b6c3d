package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSnapshotSchema creates the snapshot table if it is missing. Safe to call at startup.
func EnsureSnapshotSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ddl := `CREATE TABLE IF NOT EXISTS omnipost_snapshots (
		snapshot_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating omnipost_snapshots failed: %w", err)
	}
	return nil
}

// EnsureSnapshotSchemaMSSQL is the SQL Server variant, guarded by OBJECT_ID.
func EnsureSnapshotSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := `IF OBJECT_ID('dbo.omnipost_snapshots', 'U') IS NULL BEGIN
		CREATE TABLE dbo.[omnipost_snapshots] (
			snapshot_key NVARCHAR(128) NOT NULL PRIMARY KEY,
			payload NVARCHAR(MAX) NOT NULL,
			updated_at DATETIME2 NOT NULL
		)
	END`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure table dbo.omnipost_snapshots: %w", err)
	}
	return nil
}
