package database

import (
	"database/sql"
	"fmt"

	"senser/common/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// NewPostgresDB opens a pooled connection for cfg.Driver (postgres by default).
// The name is kept for the common case; pgx and sqlite go through the same path.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.DriverName(), cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSqlxDB wraps NewPostgresDB with the sqlx binding for the same driver
func NewSqlxDB(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(db, cfg.DriverName()), nil
}

// Close closes db when non-nil
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
