package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
)

// MemoryQuery returns current free and used memory. Swappable so tests can
// inject failures and deterministic values.
type MemoryQuery func() (free, used uint64, err error)

func defaultMemoryQuery() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Free, vm.Used, nil
}

// MemorySampler samples process-visible memory on a fixed interval, as an
// independently cancellable task that neither blocks nor is blocked by the
// worker set. Sampling continues for a tail window after the workload stops
// so asynchronous reclamation stays observable; those samples carry
// PostWindow. A failed query is logged and skipped, leaving a gap in the
// series rather than failing the run.
type MemorySampler struct {
	interval time.Duration
	tail     time.Duration
	query    MemoryQuery
	log      *logrus.Entry

	mu      sync.Mutex
	samples []MemorySample

	post   atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMemorySampler(interval, tail time.Duration, log *logrus.Entry) *MemorySampler {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &MemorySampler{
		interval: interval,
		tail:     tail,
		query:    defaultMemoryQuery,
		log:      log,
		done:     make(chan struct{}),
	}
}

// SetQuery overrides the memory source. Call before Start.
func (s *MemorySampler) SetQuery(q MemoryQuery) { s.query = q }

// Start launches the sampling goroutine.
func (s *MemorySampler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

func (s *MemorySampler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.sample()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *MemorySampler) sample() {
	free, used, err := s.query()
	if err != nil {
		s.log.WithError(err).Warn("memory sample skipped")
		return
	}
	rec := MemorySample{
		Timestamp:  time.Now(),
		FreeBytes:  free,
		UsedBytes:  used,
		PostWindow: s.post.Load(),
	}
	s.mu.Lock()
	s.samples = append(s.samples, rec)
	s.mu.Unlock()
}

// MarkStopped flags every sample from here on as post-window. Call at the
// Done barrier.
func (s *MemorySampler) MarkStopped() { s.post.Store(true) }

// Finish keeps sampling for the tail window, then joins the sampler and
// returns the series. Start must have been called.
func (s *MemorySampler) Finish() []MemorySample {
	s.post.Store(true)
	if s.tail > 0 {
		timer := time.NewTimer(s.tail)
		select {
		case <-timer.C:
		case <-s.done: // context already cancelled underneath us
			timer.Stop()
		}
	}
	s.cancel()
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}
