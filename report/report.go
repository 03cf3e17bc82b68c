// Package report writes the result files of a simulation run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/timing/cache"
	"github.com/sarchlab/rvsim/timing/core"
	"github.com/sarchlab/rvsim/timing/perf"
)

// PerformanceFile is the name of the performance summary.
const PerformanceFile = "PerformanceMetrics.txt"

// StateFile returns the per-cycle state file name of a core kind.
func StateFile(kind core.Kind) string {
	return "StateResult_" + kind.Prefix() + ".txt"
}

// RegisterFile returns the register dump file name of a core kind.
func RegisterFile(kind core.Kind) string {
	return kind.Prefix() + "_RFResult.txt"
}

// DataMemoryFile returns the data memory dump file name of a core kind.
func DataMemoryFile(kind core.Kind) string {
	return kind.Prefix() + "_DMEMResult.txt"
}

// Metrics is the performance summary of one core.
type Metrics struct {
	perf.Report

	// DCache is set when data-cache profiling was enabled.
	DCache *cache.Statistics `json:"dcache,omitempty"`
}

// MetricsOf collects the summary of a finished core.
func MetricsOf(c *core.Core) Metrics {
	m := Metrics{Report: c.Report()}
	if stats, ok := c.DCacheStats(); ok {
		m.DCache = &stats
	}
	return m
}

// errWriter keeps the first write error so formatting code can ignore it.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteCoreResults writes the state trace, register dump and data memory
// dump of a core into dir. It also works for a core that stopped on an
// error: whatever was recorded is written.
func WriteCoreResults(dir string, c *core.Core) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	kind := c.Kind()
	records := c.Trace().Records()

	err := writeFile(filepath.Join(dir, StateFile(kind)), func(w io.Writer) error {
		if kind == core.FiveStage {
			return WriteFiveStageState(w, records)
		}
		return WriteSingleStageState(w, records)
	})
	if err != nil {
		return err
	}

	err = writeFile(filepath.Join(dir, RegisterFile(kind)), func(w io.Writer) error {
		if c.TracesRegisters() {
			return WriteRegisterTrace(w, records)
		}
		last := uint64(0)
		if n := len(records); n > 0 {
			last = records[n-1].Cycle
		}
		return WriteRegisterState(w, last, c.RegFile().Snapshot())
	})
	if err != nil {
		return err
	}

	err = writeFile(filepath.Join(dir, DataMemoryFile(kind)), func(w io.Writer) error {
		return WriteDataMemory(w, c.Memory().Bytes())
	})
	if err != nil {
		return err
	}

	log.Debug(log.ReportModule, "wrote core results",
		"core", kind.String(), "dir", dir, "cycles", len(records))
	return nil
}

// WritePerformanceResults writes PerformanceMetrics.txt into dir.
func WritePerformanceResults(dir string, metrics []Metrics) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	return writeFile(filepath.Join(dir, PerformanceFile), func(w io.Writer) error {
		return WritePerformance(w, metrics)
	})
}
