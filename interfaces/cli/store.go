package cli

import (
	"context"
	"fmt"
	"strings"

	"omnipost/domain/repository"
	"omnipost/infrastructure/cache"
	"omnipost/infrastructure/configuration"
	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/persistence"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMSSQL    = "mssql"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
)

// openStore selects the snapshot backend named by store.driver. The returned func releases it.
func openStore(ctx context.Context, cfg configuration.Config) (repository.ISnapshot, func(), error) {
	noop := func() {}
	key := cfg.Store.Key
	lg := logger.GetLogger().WithField("driver", cfg.Store.Driver)

	switch strings.ToLower(cfg.Store.Driver) {
	case "", DriverFile:
		lg.WithField("path", cfg.Store.File).Info("Using file snapshot store")
		return persistence.NewFileStore(cfg.Store.File), noop, nil

	case DriverPostgres:
		db, err := persistence.NewPostgreSQLDB(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		if err := persistence.EnsureSnapshotSchema(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return persistence.NewSnapshotRepository(db, key), func() { _ = db.Close() }, nil

	case DriverMSSQL:
		db, err := persistence.NewMSSQLDB(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("mssql: %w", err)
		}
		if err := persistence.EnsureSnapshotSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return persistence.NewSnapshotRepositoryMSSQL(db, key), func() { _ = db.Close() }, nil

	case DriverMySQL:
		gdb, err := persistence.NewRepositories()
		if err != nil {
			return nil, noop, fmt.Errorf("mysql: %w", err)
		}
		repo := persistence.NewSnapshotRepositoryMySQL(gdb, key)
		if err := repo.Migrate(); err != nil {
			return nil, noop, err
		}
		closer := noop
		if sqlDB, err := gdb.DB(); err == nil {
			closer = func() { _ = sqlDB.Close() }
		}
		return repo, closer, nil

	case DriverMongo:
		m := cfg.Database.Mongo
		client, err := persistence.NewMongoDb(m.Host, m.Port, m.User, m.Password, m.Name)
		if err != nil {
			return nil, noop, fmt.Errorf("mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, noop, fmt.Errorf("mongo ping: %w", err)
		}
		return persistence.NewSnapshotRepositoryMongo(client, m.Name, key), func() { _ = client.Disconnect(context.Background()) }, nil

	case DriverRedis:
		r := cfg.RedisClient
		client, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", r.Host, r.Port), r.Username, r.Password, r.DB)
		if err != nil {
			return nil, noop, fmt.Errorf("redis: %w", err)
		}
		return cache.NewSnapshotCache(client, key), func() { _ = client.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
