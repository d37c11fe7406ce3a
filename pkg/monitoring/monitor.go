package monitoring

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Usage is one resource sample of a process.
type Usage struct {
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
	Threads    int32     `json:"threads"`
	Timestamp  time.Time `json:"timestamp"`
}

type Summary struct {
	Samples       int     `json:"samples"`
	AvgCPUPercent float64 `json:"avg_cpu_percent"`
	MaxCPUPercent float64 `json:"max_cpu_percent"`
	AvgRSSBytes   uint64  `json:"avg_rss_bytes"`
	MaxRSSBytes   uint64  `json:"max_rss_bytes"`
}

type Sampler interface {
	Sample(ctx context.Context) (Usage, error)
}

type ProcessSampler struct {
	proc *process.Process
}

// NewProcessSampler samples the current process.
func NewProcessSampler() (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	return &ProcessSampler{proc: proc}, nil
}

func (s *ProcessSampler) Sample(ctx context.Context) (Usage, error) {
	u := Usage{Timestamp: time.Now()}

	cpu, err := s.proc.CPUPercentWithContext(ctx)
	if err != nil {
		return Usage{}, err
	}
	u.CPUPercent = cpu

	mem, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return Usage{}, err
	}
	u.RSSBytes = mem.RSS

	if threads, err := s.proc.NumThreadsWithContext(ctx); err == nil {
		u.Threads = threads
	}

	return u, nil
}

// Track samples s immediately and then every interval until the returned
// stop function is called. Stop takes a final sample and summarizes all of
// them. Failed samples are skipped.
func Track(ctx context.Context, s Sampler, interval time.Duration) (stop func() Summary) {
	var (
		mu      sync.Mutex
		samples []Usage
		wg      sync.WaitGroup
	)
	collect := func() {
		u, err := s.Sample(ctx)
		if err != nil {
			return
		}
		mu.Lock()
		samples = append(samples, u)
		mu.Unlock()
	}

	collect()

	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				collect()
			}
		}
	}()

	return func() Summary {
		close(done)
		wg.Wait()
		collect()

		mu.Lock()
		defer mu.Unlock()

		return Summarize(samples)
	}
}

func Summarize(samples []Usage) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	sum := Summary{Samples: len(samples)}
	var totalCPU float64
	var totalRSS uint64
	for _, u := range samples {
		totalCPU += u.CPUPercent
		totalRSS += u.RSSBytes

		if u.CPUPercent > sum.MaxCPUPercent {
			sum.MaxCPUPercent = u.CPUPercent
		}
		if u.RSSBytes > sum.MaxRSSBytes {
			sum.MaxRSSBytes = u.RSSBytes
		}
	}
	sum.AvgCPUPercent = totalCPU / float64(len(samples))
	sum.AvgRSSBytes = totalRSS / uint64(len(samples))

	return sum
}
