package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/absmach/flclient/pkg/fl"
	"github.com/dgraph-io/badger/v4"
)

const seqBandwidth = 100

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
)

type RoundRepository interface {
	Append(ctx context.Context, rec fl.RoundRecord) error
	List(ctx context.Context, offset, limit uint64) ([]fl.RoundRecord, uint64, error)
}

type Database struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	seq, err := db.GetSequence([]byte("seq:rounds"), seqBandwidth)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db, seq: seq}, nil
}

func (d *Database) Close() error {
	return errors.Join(d.seq.Release(), d.db.Close())
}

func (d *Database) next() (uint64, error) {
	n, err := d.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return n, nil
}

func (d *Database) set(key, val []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

// page reads the values under prefix in key order, skipping offset and
// keeping at most limit, together with the total count. Both come from one
// read transaction.
func (d *Database) page(prefix []byte, offset, limit uint64) ([][]byte, uint64, error) {
	var (
		items [][]byte
		total uint64
	)
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			pos := total
			total++
			if pos < offset || pos-offset >= limit {
				continue
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, val)
		}

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return items, total, nil
}
