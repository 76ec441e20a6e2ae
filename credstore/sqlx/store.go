package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"trophykit/core"
)

// Driver names a supported SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store keeps credential pairs in a relational table:
//
//	CREATE TABLE game_credentials (
//	    game_id    INTEGER PRIMARY KEY,
//	    username   TEXT NOT NULL,
//	    token      TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies connectivity.
func New(cfg Config) (*Store, error) {
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB creates a Store using an existing sqlx handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(ctx context.Context, gameID int) (*core.Credentials, error) {
	var creds core.Credentials
	query := s.db.Rebind(`SELECT username, token FROM game_credentials WHERE game_id = ?`)
	err := s.db.QueryRowxContext(ctx, query, gameID).Scan(&creds.Username, &creds.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return &creds, nil
}

func (s *Store) Write(ctx context.Context, gameID int, creds *core.Credentials) error {
	if creds == nil || !creds.Valid() {
		query := s.db.Rebind(`DELETE FROM game_credentials WHERE game_id = ?`)
		if _, err := s.db.ExecContext(ctx, query, gameID); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	query := tx.Rebind(`SELECT EXISTS (SELECT 1 FROM game_credentials WHERE game_id = ?)`)
	if err := tx.QueryRowxContext(ctx, query, gameID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to probe credentials row: %w", err)
	}

	now := time.Now().UTC()
	if exists {
		query = tx.Rebind(`UPDATE game_credentials SET username = ?, token = ?, updated_at = ? WHERE game_id = ?`)
		_, err = tx.ExecContext(ctx, query, creds.Username, creds.Token, now, gameID)
	} else {
		query = tx.Rebind(`INSERT INTO game_credentials (game_id, username, token, updated_at) VALUES (?, ?, ?, ?)`)
		_, err = tx.ExecContext(ctx, query, gameID, creds.Username, creds.Token, now)
	}
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return tx.Commit()
}
