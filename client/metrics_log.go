package client

import "sync"

type MetricsEntry struct {
	Round uint64  `json:"round"`
	Loss  float64 `json:"loss"`
	MAPE  float64 `json:"mape"`
}

// MetricsLog accumulates one entry per completed evaluation round. It only
// grows for the lifetime of the process.
type MetricsLog struct {
	mu      sync.RWMutex
	entries []MetricsEntry
}

func NewMetricsLog() *MetricsLog {
	return &MetricsLog{}
}

func (l *MetricsLog) Record(round uint64, loss, mape float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, MetricsEntry{Round: round, Loss: loss, MAPE: mape})
}

func (l *MetricsLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Entries returns a copy of the log in recording order.
func (l *MetricsLog) Entries() []MetricsEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]MetricsEntry, len(l.entries))
	copy(out, l.entries)

	return out
}

func (l *MetricsLog) Last() (MetricsEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return MetricsEntry{}, false
	}

	return l.entries[len(l.entries)-1], true
}
