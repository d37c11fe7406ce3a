package badger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/flclient/pkg/fl"
	"github.com/absmach/flclient/pkg/storage/badger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *badger.Database

func TestMain(m *testing.M) {
	dbPath := filepath.Join(os.TempDir(), "badger_test_"+uuid.NewString())

	var err error
	testDB, err = badger.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.RemoveAll(dbPath)

	os.Exit(code)
}

func TestRoundRepository(t *testing.T) {
	repo := badger.NewRoundRepository(testDB)
	loss := 0.42
	now := time.Now().UTC().Truncate(time.Millisecond)

	records := []fl.RoundRecord{
		{ClientID: "1", Round: 1, Kind: fl.Fit, NumSamples: 60, Duration: time.Second, CompletedAt: now},
		{ClientID: "1", Round: 1, Kind: fl.Evaluate, NumSamples: 20, Loss: &loss, Metrics: map[string]float64{fl.MAPEKey: 3.5}, CompletedAt: now},
		{ClientID: "1", Round: 2, Kind: fl.Fit, NumSamples: 60, CompletedAt: now},
	}
	for _, rec := range records {
		require.NoError(t, repo.Append(context.Background(), rec))
	}

	cases := []struct {
		desc   string
		offset uint64
		limit  uint64
		want   []fl.RoundRecord
	}{
		{desc: "list all", offset: 0, limit: 10, want: records},
		{desc: "list with limit", offset: 0, limit: 2, want: records[:2]},
		{desc: "list with offset", offset: 1, limit: 10, want: records[1:]},
		{desc: "offset past end", offset: 5, limit: 10, want: []fl.RoundRecord{}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, total, err := repo.List(context.Background(), tc.offset, tc.limit)
			require.NoError(t, err)
			assert.Equal(t, uint64(len(records)), total)
			require.Len(t, got, len(tc.want))
			for i := range got {
				assert.Equal(t, tc.want[i].Kind, got[i].Kind)
				assert.Equal(t, tc.want[i].Round, got[i].Round)
				assert.Equal(t, tc.want[i].NumSamples, got[i].NumSamples)
				assert.Equal(t, tc.want[i].Loss, got[i].Loss)
				assert.True(t, tc.want[i].CompletedAt.Equal(got[i].CompletedAt))
			}
		})
	}
}
