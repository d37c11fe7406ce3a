package client_test

import (
	"sync"
	"testing"

	"github.com/absmach/flclient/client"
	"github.com/stretchr/testify/assert"
)

func TestMetricsLog(t *testing.T) {
	t.Parallel()

	l := client.NewMetricsLog()
	_, ok := l.Last()
	assert.False(t, ok)
	assert.Empty(t, l.Entries())

	l.Record(1, 0.5, 10)
	l.Record(2, 0.4, 8)

	assert.Equal(t, 2, l.Len())
	last, ok := l.Last()
	assert.True(t, ok)
	assert.Equal(t, client.MetricsEntry{Round: 2, Loss: 0.4, MAPE: 8}, last)

	entries := l.Entries()
	entries[0].Loss = 99
	assert.Equal(t, 0.5, l.Entries()[0].Loss, "entries must be a copy")
}

func TestMetricsLogConcurrent(t *testing.T) {
	t.Parallel()

	l := client.NewMetricsLog()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.Record(uint64(i), float64(i), float64(i))
		}()
		go func() {
			defer wg.Done()
			_ = l.Entries()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
}
