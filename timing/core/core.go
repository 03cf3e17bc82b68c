// Package core provides the per-run context of a simulated core.
//
// A Core owns one core's register file, data memory, trace buffer and
// optional data-cache profiler. Either the single-stage or the five-stage
// implementation drives it; both are stepped through the same interface.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rvsim/config"
	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/loader"
	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/timing/cache"
	"github.com/sarchlab/rvsim/timing/perf"
	"github.com/sarchlab/rvsim/timing/pipeline"
	"github.com/sarchlab/rvsim/trace"
)

// ErrCycleLimit is returned when a core does not halt within the configured
// cycle budget.
var ErrCycleLimit = errors.New("cycle limit exceeded")

// Kind selects the core implementation.
type Kind uint8

// Core kinds.
const (
	SingleStage Kind = iota
	FiveStage
)

// String returns the report name of the kind.
func (k Kind) String() string {
	if k == FiveStage {
		return perf.FiveStage
	}
	return perf.SingleStage
}

// Prefix returns the result-file prefix of the kind.
func (k Kind) Prefix() string {
	if k == FiveStage {
		return "FS"
	}
	return "SS"
}

func (k Kind) module() string {
	if k == FiveStage {
		return log.FiveStageModule
	}
	return log.SingleStageModule
}

// Stats holds the counters of a run. Stalls and Flushes stay zero for the
// single-stage core.
type Stats struct {
	Cycles       uint64 `json:"cycles"`
	Instructions uint64 `json:"instructions"`
	Stalls       uint64 `json:"stalls"`
	Flushes      uint64 `json:"flushes"`
}

// Core is one core's run context.
type Core struct {
	kind           Kind
	maxCycles      uint64
	traceRegisters bool

	regFile *emu.RegFile
	memory  *emu.Memory
	trace   *trace.Buffer
	dcache  *cache.Cache

	ss *emu.Emulator
	fs *pipeline.Pipeline

	err error
}

// New builds a core of the given kind over a private copy of the program's
// images.
func New(kind Kind, prog *loader.Program, cfg *config.Config) (*Core, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	order, err := cfg.ByteOrder()
	if err != nil {
		return nil, err
	}

	imem, err := emu.NewInstructionMemory(prog.Instructions, cfg.InstructionMemorySize, order)
	if err != nil {
		return nil, fmt.Errorf("instruction image: %w", err)
	}

	memory, err := emu.NewMemoryFromImage(prog.Data, cfg.DataMemorySize)
	if err != nil {
		return nil, fmt.Errorf("data image: %w", err)
	}

	c := &Core{
		kind:           kind,
		maxCycles:      cfg.MaxCycles,
		traceRegisters: cfg.TraceRegisters,
		regFile:        &emu.RegFile{},
		memory:         memory,
		trace:          trace.NewBuffer(),
	}

	if cfg.DCache.Enabled {
		c.dcache = cache.New(cfg.DCache.Config)
		memory.SetObserver(c.dcache)
	}

	switch kind {
	case FiveStage:
		c.fs = pipeline.NewPipeline(imem, memory,
			pipeline.WithRegFile(c.regFile),
			pipeline.WithTrace(c.trace),
			pipeline.WithRegisterTrace(cfg.TraceRegisters))
	default:
		c.ss = emu.NewEmulator(imem, memory,
			emu.WithRegFile(c.regFile),
			emu.WithTrace(c.trace),
			emu.WithRegisterTrace(cfg.TraceRegisters))
	}

	return c, nil
}

// Kind returns the core kind.
func (c *Core) Kind() Kind {
	return c.kind
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Memory returns the core's data memory.
func (c *Core) Memory() *emu.Memory {
	return c.memory
}

// Trace returns the per-cycle records of the run.
func (c *Core) Trace() *trace.Buffer {
	return c.trace
}

// TracesRegisters reports whether trace records carry register snapshots.
func (c *Core) TracesRegisters() bool {
	return c.traceRegisters
}

// Pipeline returns the five-stage pipeline, or nil for a single-stage core.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.fs
}

// DCacheStats returns the data-cache profile. ok is false when profiling is
// disabled.
func (c *Core) DCacheStats() (stats cache.Statistics, ok bool) {
	if c.dcache == nil {
		return cache.Statistics{}, false
	}
	return c.dcache.Stats(), true
}

// Err returns the fatal error that stopped the core, if any.
func (c *Core) Err() error {
	return c.err
}

// Halted reports whether the core has halted.
func (c *Core) Halted() bool {
	if c.fs != nil {
		return c.fs.Halted()
	}
	return c.ss.Halted()
}

// Stats returns the run counters.
func (c *Core) Stats() Stats {
	if c.fs != nil {
		s := c.fs.Stats()
		return Stats{
			Cycles:       s.Cycles,
			Instructions: s.Instructions,
			Stalls:       s.Stalls,
			Flushes:      s.Flushes,
		}
	}

	s := c.ss.Stats()
	return Stats{Cycles: s.Cycles, Instructions: s.Instructions}
}

// Tick simulates one cycle. After a fatal error every call returns that
// error again.
func (c *Core) Tick() error {
	if c.err != nil {
		return c.err
	}

	var err error
	if c.fs != nil {
		err = c.fs.Tick()
	} else {
		err = c.ss.Step().Err
	}

	if err != nil {
		c.err = fmt.Errorf("%s core: %w", c.kind, err)
	}
	return c.err
}

// Run ticks until the core halts, fails or exhausts its cycle budget, and
// returns the performance report of the cycles simulated so far.
func (c *Core) Run() (perf.Report, error) {
	for !c.Halted() {
		if c.maxCycles > 0 && c.Stats().Cycles >= c.maxCycles {
			c.err = fmt.Errorf("%s core: %w after %d cycles", c.kind, ErrCycleLimit, c.maxCycles)
			break
		}
		if err := c.Tick(); err != nil {
			break
		}
	}

	if c.err != nil {
		log.Error(c.kind.module(), "core stopped", "err", c.err, "cycles", c.Stats().Cycles)
	}

	return c.Report(), c.err
}

// Report computes the performance report from the current counters. An
// undefined CPI is logged and flagged in the report.
func (c *Core) Report() perf.Report {
	stats := c.Stats()
	r, err := perf.Compute(c.kind.String(), stats.Cycles, stats.Instructions)
	if err != nil {
		log.Warn(c.kind.module(), "performance ratios undefined", "err", err)
	}
	return r
}
