package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/flclient/pkg/fl"
)

var roundPrefix = []byte("rr:")

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

func (r *roundRepo) Append(_ context.Context, rec fl.RoundRecord) error {
	id, err := r.db.next()
	if err != nil {
		return err
	}
	key := fmt.Appendf(nil, "%s%020d", roundPrefix, id)
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return r.db.set(key, val)
}

func (r *roundRepo) List(_ context.Context, offset, limit uint64) ([]fl.RoundRecord, uint64, error) {
	values, total, err := r.db.page(roundPrefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	rounds := make([]fl.RoundRecord, len(values))
	for i, val := range values {
		if err := json.Unmarshal(val, &rounds[i]); err != nil {
			return nil, 0, fmt.Errorf("unmarshal error: %w", err)
		}
	}

	return rounds, total, nil
}
