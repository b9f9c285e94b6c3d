package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"omnipost/domain/model"
)

// SnapshotRepositoryMSSQL stores the snapshot as one row in SQL Server.
type SnapshotRepositoryMSSQL struct {
	db  *sql.DB
	key string
}

func NewSnapshotRepositoryMSSQL(db *sql.DB, key string) *SnapshotRepositoryMSSQL {
	return &SnapshotRepositoryMSSQL{db: db, key: key}
}

func (r *SnapshotRepositoryMSSQL) Load(ctx context.Context) (*model.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM dbo.omnipost_snapshots WHERE snapshot_key=@p1`, r.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return EmptySnapshot(), nil
	}
	if err != nil {
		return EmptySnapshot(), err
	}
	return DecodeSnapshot("mssql:"+r.key, []byte(payload)), nil
}

// Save upserts with MERGE; HOLDLOCK keeps two writers from both inserting.
func (r *SnapshotRepositoryMSSQL) Save(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	q := `MERGE dbo.omnipost_snapshots WITH (HOLDLOCK) AS t
		  USING (SELECT @p1 AS snapshot_key) AS s ON t.snapshot_key = s.snapshot_key
		  WHEN MATCHED THEN UPDATE SET payload=@p2, updated_at=@p3
		  WHEN NOT MATCHED THEN INSERT (snapshot_key, payload, updated_at) VALUES (@p1, @p2, @p3);`
	_, err = r.db.ExecContext(ctx, q, r.key, string(data), time.Now().UTC())
	return err
}
