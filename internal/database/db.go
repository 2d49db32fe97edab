// internal/database/db.go
//
// Opens the relational store used for saved games, accounts and round
// results. SQLite is the default; PostgreSQL is selected with DB_TYPE.
// Queries are written with ? placeholders and rewritten per dialect.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DB wraps *sql.DB with the dialect used to rewrite queries.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Config selects and addresses a backend.
type Config struct {
	Type string // sqlite | postgres
	Path string // sqlite file
	URL  string // postgres DSN
}

// DialectFor maps a DB_TYPE value to its dialect.
func DialectFor(kind string) (Dialect, error) {
	switch strings.ToLower(kind) {
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", kind)
	}
}

// Open connects, pings and configures the backend. Migrations are not
// applied; call Migrate.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, err := DialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}
	dc := DialectConfig{Path: cfg.Path, URL: cfg.URL}

	if dialect.Name() == "sqlite" {
		// Ensure directory exists for ./data/charades.db, etc.
		dir := filepath.Dir(cfg.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	} else if cfg.URL == "" {
		return nil, fmt.Errorf("%s requires DATABASE_URL", dialect.Name())
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dialect.DSN(dc))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := dialect.ConfigureConnection(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("configure connection: %w", err)
	}
	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.RewriteQuery(query), args...)
}

// Tx is a transaction that rewrites placeholders like DB does.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.Dialect}, nil
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, tx.dialect.RewriteQuery(query), args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.Tx.QueryContext(ctx, tx.dialect.RewriteQuery(query), args...)
}
