package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/absmach/flclient/pkg/fl"
)

type roundRepo struct {
	db *Database
}

func NewRoundRepository(db *Database) RoundRepository {
	return &roundRepo{db: db}
}

func (r *roundRepo) Append(ctx context.Context, rec fl.RoundRecord) error {
	var metrics sql.NullString
	if len(rec.Metrics) > 0 {
		data, err := json.Marshal(rec.Metrics)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		metrics = sql.NullString{String: string(data), Valid: true}
	}

	var loss sql.NullFloat64
	if rec.Loss != nil {
		loss = sql.NullFloat64{Float64: *rec.Loss, Valid: true}
	}

	query := `INSERT INTO rounds (client_id, round, kind, num_samples, loss, metrics, duration_ns, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		rec.ClientID,
		int64(rec.Round),
		string(rec.Kind),
		rec.NumSamples,
		loss,
		metrics,
		int64(rec.Duration),
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *roundRepo) List(ctx context.Context, offset, limit uint64) ([]fl.RoundRecord, uint64, error) {
	var total uint64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	query := `SELECT client_id, round, kind, num_samples, loss, metrics, duration_ns, completed_at
		FROM rounds ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, int64(limit), int64(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}
	defer rows.Close()

	rounds := []fl.RoundRecord{}
	for rows.Next() {
		var (
			rec         fl.RoundRecord
			round       int64
			kind        string
			loss        sql.NullFloat64
			metrics     sql.NullString
			duration    int64
			completedAt string
		)
		if err := rows.Scan(&rec.ClientID, &round, &kind, &rec.NumSamples, &loss, &metrics, &duration, &completedAt); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
		}
		rec.Round = uint64(round)
		rec.Kind = fl.InstructionKind(kind)
		rec.Duration = time.Duration(duration)
		if loss.Valid {
			rec.Loss = &loss.Float64
		}
		if metrics.Valid {
			if err := json.Unmarshal([]byte(metrics.String), &rec.Metrics); err != nil {
				return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
			}
		}
		if rec.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
		}
		rounds = append(rounds, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return rounds, total, nil
}
