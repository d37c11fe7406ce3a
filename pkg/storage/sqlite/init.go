package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/absmach/flclient/pkg/fl"
	_ "modernc.org/sqlite"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrMigration    = errors.New("database migration error")
	ErrCreate       = errors.New("create error")
)

type RoundRepository interface {
	Append(ctx context.Context, rec fl.RoundRecord) error
	List(ctx context.Context, offset, limit uint64) ([]fl.RoundRecord, uint64, error)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		kind TEXT NOT NULL,
		num_samples INTEGER NOT NULL,
		loss REAL,
		metrics TEXT,
		duration_ns INTEGER NOT NULL,
		completed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_round ON rounds(round)`,
}

type Database struct {
	*sql.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	database := &Database{DB: db}
	if err := database.Migrate(context.Background()); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %w", ErrMigration, err)
		}
	}

	return nil
}
