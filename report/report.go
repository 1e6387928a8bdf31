// Package report serializes finished benchmark results into CSV files, one
// file per concern (latency samples, memory trace, per-repetition summary)
// so downstream analysis can load each independently.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/reclaim-bench/reclaim-bench/bench"
)

// WriteFiles writes the three CSV outputs of a group into dir, creating it
// if needed. Filenames are <group>_latency.csv, <group>_memory.csv and
// <group>_summary.csv. Any write error is returned immediately; a partial
// file on disk is worthless, so the caller should treat it as fatal.
func WriteFiles(dir, group string, results []bench.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	writers := []struct {
		suffix string
		write  func(io.Writer, []bench.RunResult) error
	}{
		{"latency", WriteLatencyCSV},
		{"memory", WriteMemoryCSV},
		{"summary", WriteSummaryCSV},
	}
	for _, w := range writers {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", group, w.suffix))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := w.write(f, results); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
	}
	return nil
}

// WriteLatencyCSV emits one row per recorded operation.
func WriteLatencyCSV(w io.Writer, results []bench.RunResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"data_structure", "scheme", "thread_count", "repetition",
		"thread_id", "operation_kind", "timestamp_ns", "latency_ns",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		if r.Failed {
			continue
		}
		for _, s := range r.Samples {
			row := []string{
				string(r.Config.Structure),
				string(r.Config.Scheme),
				strconv.Itoa(r.Config.Threads),
				strconv.Itoa(r.Repetition),
				strconv.Itoa(s.ThreadID),
				s.Kind.String(),
				strconv.FormatInt(s.Timestamp.UnixNano(), 10),
				strconv.FormatInt(s.LatencyNs, 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMemoryCSV emits the memory time series of every repetition, with the
// post_window column marking samples taken after the workers stopped.
func WriteMemoryCSV(w io.Writer, results []bench.RunResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"data_structure", "scheme", "thread_count", "repetition",
		"timestamp_ns", "free_bytes", "used_bytes", "post_window",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		if r.Failed {
			continue
		}
		for _, m := range r.Memory {
			row := []string{
				string(r.Config.Structure),
				string(r.Config.Scheme),
				strconv.Itoa(r.Config.Threads),
				strconv.Itoa(r.Repetition),
				strconv.FormatInt(m.Timestamp.UnixNano(), 10),
				strconv.FormatUint(m.FreeBytes, 10),
				strconv.FormatUint(m.UsedBytes, 10),
				strconv.FormatBool(m.PostWindow),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV emits one row per repetition with derived aggregates.
// Failed repetitions are included with their reason so a sweep that lost a
// cell is visible in the summary rather than silently shorter.
func WriteSummaryCSV(w io.Writer, results []bench.RunResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"data_structure", "scheme", "thread_count", "repetition",
		"completed_ops", "elapsed_ns", "throughput_ops_sec",
		"p50_latency_ns", "p95_latency_ns", "p99_latency_ns",
		"failed", "fail_reason",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		p50, p95, p99 := latencyQuantiles(r.Samples)
		row := []string{
			string(r.Config.Structure),
			string(r.Config.Scheme),
			strconv.Itoa(r.Config.Threads),
			strconv.Itoa(r.Repetition),
			strconv.Itoa(r.Completed),
			strconv.FormatInt(r.Stop.Sub(r.Start).Nanoseconds(), 10),
			strconv.FormatFloat(r.Throughput(), 'f', 3, 64),
			strconv.FormatFloat(p50, 'f', 0, 64),
			strconv.FormatFloat(p95, 'f', 0, 64),
			strconv.FormatFloat(p99, 'f', 0, 64),
			strconv.FormatBool(r.Failed),
			r.FailReason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func latencyQuantiles(samples []bench.SampleRecord) (p50, p95, p99 float64) {
	if len(samples) == 0 {
		return 0, 0, 0
	}
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = float64(s.LatencyNs)
	}
	sort.Float64s(xs)
	p50 = stat.Quantile(0.50, stat.Empirical, xs, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, xs, nil)
	p99 = stat.Quantile(0.99, stat.Empirical, xs, nil)
	return p50, p95, p99
}
