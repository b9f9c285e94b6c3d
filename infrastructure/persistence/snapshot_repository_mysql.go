package persistence

import (
	"context"
	"errors"
	"time"

	"omnipost/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRow struct {
	SnapshotKey string    `gorm:"column:snapshot_key;primaryKey;size:128"`
	Payload     string    `gorm:"column:payload;type:longtext;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (snapshotRow) TableName() string { return "omnipost_snapshots" }

// SnapshotRepositoryMySQL stores the snapshot through gorm.
type SnapshotRepositoryMySQL struct {
	db  *gorm.DB
	key string
}

func NewSnapshotRepositoryMySQL(db *gorm.DB, key string) *SnapshotRepositoryMySQL {
	return &SnapshotRepositoryMySQL{db: db, key: key}
}

func (r *SnapshotRepositoryMySQL) Migrate() error {
	return r.db.AutoMigrate(&snapshotRow{})
}

func (r *SnapshotRepositoryMySQL) Load(ctx context.Context) (*model.Snapshot, error) {
	var row snapshotRow
	err := r.db.WithContext(ctx).Where("snapshot_key = ?", r.key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EmptySnapshot(), nil
	}
	if err != nil {
		return EmptySnapshot(), err
	}
	return DecodeSnapshot("mysql:"+r.key, []byte(row.Payload)), nil
}

func (r *SnapshotRepositoryMySQL) Save(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	row := snapshotRow{SnapshotKey: r.key, Payload: string(data), UpdatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"})}).
		Create(&row).Error
}
