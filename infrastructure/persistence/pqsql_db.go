package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"omnipost/infrastructure/configuration"

	_ "github.com/lib/pq"
)

func PostgresDSN(cfg configuration.Db) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}

func NewPostgreSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresDSN(configuration.C.Database.Psql))
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
