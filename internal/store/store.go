// Package store opens the customer repository selected by configuration.
package store

import (
	"context"
	"fmt"
	"log"

	"customerhub/internal/config"
	"customerhub/internal/db"
	"customerhub/internal/migrate"
	custrepo "customerhub/internal/repository/customer"
)

// Accepted values of STORE_DRIVER. An empty driver means Postgres.
const (
	// DriverPostgres keeps customers in a Postgres table with JSONB addresses.
	DriverPostgres = "postgres"
	// DriverMongo keeps customers as MongoDB documents with embedded addresses.
	DriverMongo    = "mongo"
)

// Open connects to the configured store and returns its customer repository
// with a function releasing the connection.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (custrepo.Repository, func(), error) {
	switch cfg.StoreDriver {
	case DriverPostgres, "":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return custrepo.NewPostgres(pool, logger), pool.Close, nil
	case DriverMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := custrepo.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return custrepo.NewMongo(database, logger), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Prepare brings the configured store's schema up to date.
func Prepare(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	switch cfg.StoreDriver {
	case DriverPostgres, "":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		return migrate.Apply(ctx, pool, logger)
	case DriverMongo:
		client, database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := custrepo.EnsureMongoIndexes(ctx, database); err != nil {
			return err
		}
		logger.Printf("mongo: indexes ensured on %s.%s", cfg.MongoDatabase, custrepo.CollectionName)
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
