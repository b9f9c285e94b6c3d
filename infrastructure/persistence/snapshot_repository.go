package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"omnipost/domain/model"
)

// SnapshotRepository stores the snapshot as one row in PostgreSQL.
type SnapshotRepository struct {
	db  *sql.DB
	key string
}

func NewSnapshotRepository(db *sql.DB, key string) *SnapshotRepository {
	return &SnapshotRepository{db: db, key: key}
}

func (r *SnapshotRepository) Load(ctx context.Context) (*model.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM omnipost_snapshots WHERE snapshot_key=$1`, r.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return EmptySnapshot(), nil
	}
	if err != nil {
		return EmptySnapshot(), err
	}
	return DecodeSnapshot("postgres:"+r.key, []byte(payload)), nil
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	q := `INSERT INTO omnipost_snapshots (snapshot_key, payload, updated_at)
		  VALUES ($1,$2,$3)
		  ON CONFLICT (snapshot_key) DO UPDATE SET
			payload=EXCLUDED.payload,
			updated_at=EXCLUDED.updated_at`
	_, err = r.db.ExecContext(ctx, q, r.key, string(data), time.Now().UTC())
	return err
}
