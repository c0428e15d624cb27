package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDB manages the database connection to PostgreSQL
type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgresDB creates a new connection pool to PostgreSQL
func NewPostgresDB(ctx context.Context, dbURL string) (*PostgresDB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is not set")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the database connection pool
func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetPool returns the connection pool for direct use
func (db *PostgresDB) GetPool() *pgxpool.Pool {
	return db.pool
}
