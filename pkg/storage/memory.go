package storage

import (
	"context"
	"sync"

	"github.com/absmach/flclient/pkg/fl"
)

type inMemoryRounds struct {
	sync.Mutex

	rounds []fl.RoundRecord
}

func NewInMemoryRounds() RoundRepository {
	return &inMemoryRounds{}
}

func (s *inMemoryRounds) Append(_ context.Context, rec fl.RoundRecord) error {
	s.Lock()
	defer s.Unlock()

	s.rounds = append(s.rounds, rec)

	return nil
}

func (s *inMemoryRounds) List(_ context.Context, offset, limit uint64) ([]fl.RoundRecord, uint64, error) {
	s.Lock()
	defer s.Unlock()

	total := uint64(len(s.rounds))
	if offset >= total {
		return []fl.RoundRecord{}, total, nil
	}
	end := min(offset+limit, total)

	result := make([]fl.RoundRecord, end-offset)
	copy(result, s.rounds[offset:end])

	return result, total, nil
}
