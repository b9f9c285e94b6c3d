package cache

import (
	"context"
	"errors"
	"time"

	"omnipost/domain/model"
	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/persistence"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis and verifies the connection with PING.
func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.GetLogger().WithField("addr", addr).Info("Redis client initialized successfully.")
	return client, nil
}

// KeyValue is the part of the redis client the snapshot cache uses.
type KeyValue interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// SnapshotCache keeps the snapshot under a single Redis key with no expiry.
type SnapshotCache struct {
	client KeyValue
	key    string
}

func NewSnapshotCache(client KeyValue, key string) *SnapshotCache {
	return &SnapshotCache{client: client, key: key}
}

func (c *SnapshotCache) Load(ctx context.Context) (*model.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return persistence.EmptySnapshot(), nil
	}
	if err != nil {
		return persistence.EmptySnapshot(), err
	}
	return persistence.DecodeSnapshot("redis:"+c.key, data), nil
}

func (c *SnapshotCache) Save(ctx context.Context, snapshot *model.Snapshot) error {
	data, err := persistence.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, 0).Err()
}
