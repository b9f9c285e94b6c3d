package persistence

import (
	"context"
	"errors"
	"time"

	"omnipost/domain/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const snapshotCollection = "snapshots"

type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SnapshotRepositoryMongo keeps the snapshot as one document keyed by _id.
type SnapshotRepositoryMongo struct {
	collection *mongo.Collection
	key        string
}

func NewSnapshotRepositoryMongo(client *mongo.Client, database, key string) *SnapshotRepositoryMongo {
	return &SnapshotRepositoryMongo{
		collection: client.Database(database).Collection(snapshotCollection),
		key:        key,
	}
}

func (r *SnapshotRepositoryMongo) Load(ctx context.Context) (*model.Snapshot, error) {
	var doc snapshotDocument
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: r.key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return EmptySnapshot(), nil
	}
	if err != nil {
		return EmptySnapshot(), err
	}
	return DecodeSnapshot("mongo:"+r.key, []byte(doc.Payload)), nil
}

func (r *SnapshotRepositoryMongo) Save(ctx context.Context, snapshot *model.Snapshot) error {
	doc, err := newSnapshotDocument(r.key, snapshot)
	if err != nil {
		return err
	}
	_, err = r.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: r.key}}, doc, options.Replace().SetUpsert(true))
	return err
}

func newSnapshotDocument(key string, snapshot *model.Snapshot) (*snapshotDocument, error) {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	return &snapshotDocument{Key: key, Payload: string(data), UpdatedAt: time.Now().UTC()}, nil
}
