package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reclaim-bench/reclaim-bench/reclaim"
)

// Policy selects how the key space is split across workers.
type Policy string

const (
	// PolicyDisjoint gives each worker a private key subrange: scalability
	// without cross-thread key contention.
	PolicyDisjoint Policy = "disjoint"
	// PolicyShared lets every worker contend on the full key space:
	// scheme contention overhead under pressure.
	PolicyShared Policy = "shared"
)

// Valid reports whether p names a known partitioning policy.
func (p Policy) Valid() bool { return p == PolicyDisjoint || p == PolicyShared }

// CoordState is the coordinator lifecycle state.
type CoordState int32

const (
	StateIdle CoordState = iota
	StateSpawning
	StateBarrierReady
	StateRunning
	StateBarrierDone
	StateJoined
)

// cancelCheckEvery bounds how often workers poll for cancellation; checking
// per-op would put a context load on the hot path.
const cancelCheckEvery = 1024

// Coordinator drives one repetition's worker set through
// Idle → Spawning → Ready → Running → Done → Joined. Every worker reaches
// the Ready barrier before any executes an operation, and every worker
// reaches Done before any final state is read, so timing windows are
// comparable across configurations. Workers block on each other only at
// those two barriers.
type Coordinator struct {
	adapter Adapter
	workers int
	state   atomic.Int32
	log     *logrus.Entry
}

func NewCoordinator(adapter Adapter, workers int, log *logrus.Entry) *Coordinator {
	c := &Coordinator{adapter: adapter, workers: workers, log: log}
	c.state.Store(int32(StateIdle))
	return c
}

// State reports the coordinator's lifecycle state.
func (c *Coordinator) State() CoordState { return CoordState(c.state.Load()) }

// CoordResult carries the barrier timestamps and merged samples of one
// repetition.
type CoordResult struct {
	Start     time.Time
	Stop      time.Time
	Samples   []SampleRecord
	Completed int
}

// Run executes one stream per worker and returns the merged samples plus
// the barrier window. A worker panic fails this repetition only: it is
// recovered in the worker, the barriers stay intact, and nothing built here
// outlives Run.
func (c *Coordinator) Run(ctx context.Context, streams []*OpStream) (*CoordResult, error) {
	if len(streams) != c.workers {
		return nil, fmt.Errorf("coordinator: %d streams for %d workers", len(streams), c.workers)
	}
	c.state.Store(int32(StateSpawning))

	perCap := 0
	for _, st := range streams {
		if st.Count() > perCap {
			perCap = st.Count()
		}
	}
	collector := NewCollector(c.workers, perCap)

	var (
		ready sync.WaitGroup
		done  sync.WaitGroup
		start = make(chan struct{})
	)
	panics := make([]error, c.workers)
	completed := make([]int, c.workers)

	ready.Add(c.workers)
	done.Add(c.workers)
	for i := 0; i < c.workers; i++ {
		go func(id int) {
			defer done.Done()
			defer func() {
				if r := recover(); r != nil {
					panics[id] = fmt.Errorf("worker %d panicked: %v", id, r)
				}
			}()

			// Signal readiness even if guard acquisition blows up, or the
			// barrier would deadlock.
			g := func() reclaim.Guard {
				defer ready.Done()
				return c.adapter.AcquireGuard()
			}()
			defer g.Release()

			<-start

			st := streams[id]
			for n := 0; ; n++ {
				if n%cancelCheckEvery == 0 && ctx.Err() != nil {
					return
				}
				op, ok := st.Next()
				if !ok {
					return
				}
				t0 := time.Now()
				c.adapter.Apply(g, op)
				lat := time.Since(t0)
				collector.Record(id, SampleRecord{
					Timestamp: t0,
					ThreadID:  id,
					Kind:      op.Kind,
					LatencyNs: lat.Nanoseconds(),
				})
				completed[id] = n + 1
			}
		}(i)
	}

	ready.Wait()
	c.state.Store(int32(StateBarrierReady))
	startTime := time.Now()
	c.state.Store(int32(StateRunning))
	close(start)

	done.Wait()
	stopTime := time.Now()
	c.state.Store(int32(StateBarrierDone))

	res := &CoordResult{Start: startTime, Stop: stopTime, Samples: collector.Merge()}
	for _, n := range completed {
		res.Completed += n
	}
	c.state.Store(int32(StateJoined))

	for _, p := range panics {
		if p != nil {
			c.log.WithError(p).Error("worker panicked")
			return res, p
		}
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("repetition cancelled: %w", err)
	}
	return res, nil
}
