// Package bundb owns the bun database handle shared by every module.
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/Back-Nine-Social-Club/fairway-bot/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DBService bundles the database handle and the per-module repositories.
type DBService struct {
	RoundDB  rounddb.RoundRepository
	OutingDB rounddb.OutingRepository
	db       *bun.DB
}

// GetDB returns the underlying database connection pool.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// NewBunDBService initializes a new DBService with the provided Postgres configuration.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(&rounddb.Round{})
	db.RegisterModel(&rounddb.Outing{})
	db.RegisterModel(&rounddb.RoundMessage{})
	db.RegisterModel(&rounddb.ReconcilerRun{})

	return &DBService{
		RoundDB:  rounddb.NewRoundRepository(db),
		OutingDB: rounddb.NewOutingRepository(db),
		db:       db,
	}, nil
}

// BunDB wraps an existing sql.DB in a bun handle with the pg dialect and the
// model registrations the repositories rely on. Used by the integration test
// environment, which owns the raw connection.
func BunDB(sqldb *sql.DB) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(&rounddb.Round{})
	db.RegisterModel(&rounddb.Outing{})
	db.RegisterModel(&rounddb.RoundMessage{})
	db.RegisterModel(&rounddb.ReconcilerRun{})

	return db
}

// NewTestDBService builds a DBService over an already-connected bun.DB.
func NewTestDBService(db *bun.DB) (*DBService, error) {
	if db == nil {
		return nil, fmt.Errorf("nil database handle")
	}
	return &DBService{
		RoundDB:  rounddb.NewRoundRepository(db),
		OutingDB: rounddb.NewOutingRepository(db),
		db:       db,
	}, nil
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
