package storage

import (
	"fmt"
	"io"

	"github.com/absmach/flclient/pkg/storage/badger"
	"github.com/absmach/flclient/pkg/storage/sqlite"
)

type Config struct {
	Type       string `toml:"type"        env:"TYPE"        envDefault:"memory"`
	SQLitePath string `toml:"sqlite_path" env:"SQLITE_PATH" envDefault:"./flclient.db"`
	BadgerPath string `toml:"badger_path" env:"BADGER_PATH" envDefault:"./data/badger"`
}

type Repositories struct {
	Rounds RoundRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory backend.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "sqlite":
		return newSQLiteRepositories(cfg)
	case "badger":
		return newBadgerRepositories(cfg)
	case "memory", "":
		return &Repositories{Rounds: NewInMemoryRounds()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

func newSQLiteRepositories(cfg Config) (*Repositories, error) {
	db, err := sqlite.NewDatabase(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Rounds: sqlite.NewRoundRepository(db),
		Closer: db,
	}, nil
}

func newBadgerRepositories(cfg Config) (*Repositories, error) {
	db, err := badger.NewDatabase(cfg.BadgerPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Rounds: badger.NewRoundRepository(db),
		Closer: db,
	}, nil
}
