package bench

// Collector accumulates per-operation samples without cross-thread
// contention on the hot path: every worker appends to a private,
// preallocated buffer, and the buffers are merged exactly once, at the Done
// barrier. Raw latencies are preserved: reclamation pause spikes are a
// primary signal, so nothing is reduced to running aggregates here.
type Collector struct {
	buffers [][]SampleRecord
}

func NewCollector(workers, perWorkerCap int) *Collector {
	c := &Collector{buffers: make([][]SampleRecord, workers)}
	for i := range c.buffers {
		c.buffers[i] = make([]SampleRecord, 0, perWorkerCap)
	}
	return c
}

// Record appends to the worker's private buffer. Only that worker's
// goroutine may call it.
func (c *Collector) Record(worker int, rec SampleRecord) {
	c.buffers[worker] = append(c.buffers[worker], rec)
}

// Merge flattens all buffers into one slice. Call only after every worker
// has joined.
func (c *Collector) Merge() []SampleRecord {
	total := 0
	for _, b := range c.buffers {
		total += len(b)
	}
	out := make([]SampleRecord, 0, total)
	for _, b := range c.buffers {
		out = append(out, b...)
	}
	return out
}
