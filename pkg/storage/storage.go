package storage

import (
	"context"

	"github.com/absmach/flclient/pkg/fl"
)

// RoundRepository is the round journal. Records are listed in append order.
type RoundRepository interface {
	Append(ctx context.Context, rec fl.RoundRecord) error
	List(ctx context.Context, offset, limit uint64) ([]fl.RoundRecord, uint64, error)
}
