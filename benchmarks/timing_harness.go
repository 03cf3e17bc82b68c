// Package benchmarks runs RV32 microbenchmarks on both cores and compares
// their timing and architectural results.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/sarchlab/rvsim/config"
	"github.com/sarchlab/rvsim/loader"
	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/timing/core"
)

// CoreResult holds the timing results of one core on one benchmark.
type CoreResult struct {
	// Cycles is the total cycle count
	Cycles uint64 `json:"cycles"`

	// Instructions is the number of completed instructions
	Instructions uint64 `json:"instructions"`

	// CPI is cycles per instruction; 0 when undefined
	CPI float64 `json:"cpi"`

	// IPC is instructions per cycle
	IPC float64 `json:"ipc"`

	// Stalls is the number of load-use stall cycles
	Stalls uint64 `json:"stalls"`

	// Flushes is the number of squashed fetches after taken branches
	Flushes uint64 `json:"flushes"`

	// DCacheHits/Misses (if cache profiling enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Error is set when the core stopped on a fatal error
	Error string `json:"error,omitempty"`
}

// BenchmarkResult holds the results of a single benchmark on both cores.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	SingleStage CoreResult `json:"single_stage"`
	FiveStage   CoreResult `json:"five_stage"`

	// ResultValue is the final value of the benchmark's result register
	ResultValue int32 `json:"result_value"`

	// Expected is the value the result register should hold
	Expected int32 `json:"expected"`

	// Equivalent is true when both cores ended with the same registers,
	// data memory and instruction count
	Equivalent bool `json:"equivalent"`

	// WallTime is the actual time taken to run both cores
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether both cores finished, agree, and produced the
// expected result.
func (r BenchmarkResult) Passed() bool {
	return r.SingleStage.Error == "" &&
		r.FiveStage.Error == "" &&
		r.Equivalent &&
		r.ResultValue == r.Expected
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is the RV32 instruction image, ending in HALT
	Program []byte

	// Data is the initial data memory image
	Data []byte

	// ResultReg holds the value checked after the run
	ResultReg uint8

	// Expected is the expected value of ResultReg
	Expected int32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data-cache profiling
	EnableDCache bool

	// MaxCycles bounds each core run; 0 means no limit
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: true,
		MaxCycles:    config.Default().MaxCycles,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)

		log.Debug(log.BenchModule, "benchmark finished",
			"name", bench.Name, "passed", result.Passed(),
			"ss_cycles", result.SingleStage.Cycles, "fs_cycles", result.FiveStage.Cycles)
	}

	return results
}

func (h *Harness) simConfig() *config.Config {
	cfg := config.Default()
	cfg.MaxCycles = h.config.MaxCycles
	cfg.TraceRegisters = false
	cfg.DCache.Enabled = h.config.EnableDCache
	return cfg
}

// runBenchmark executes a single benchmark on both cores.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	prog := &loader.Program{
		Name:         bench.Name,
		Instructions: bench.Program,
		Data:         bench.Data,
	}
	cfg := h.simConfig()

	start := time.Now()
	ss, ssResult := runCore(core.SingleStage, prog, cfg)
	fs, fsResult := runCore(core.FiveStage, prog, cfg)
	wallTime := time.Since(start)

	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		SingleStage: ssResult,
		FiveStage:   fsResult,
		Expected:    bench.Expected,
		WallTime:    wallTime,
	}

	if ss != nil && fs != nil {
		result.ResultValue = ss.RegFile().ReadReg(bench.ResultReg)
		result.Equivalent = ss.RegFile().X == fs.RegFile().X &&
			slices.Equal(ss.Memory().Bytes(), fs.Memory().Bytes()) &&
			ssResult.Instructions == fsResult.Instructions
	}

	return result
}

func runCore(kind core.Kind, prog *loader.Program, cfg *config.Config) (*core.Core, CoreResult) {
	c, err := core.New(kind, prog, cfg)
	if err != nil {
		return nil, CoreResult{Error: err.Error()}
	}

	report, err := c.Run()
	stats := c.Stats()
	result := CoreResult{
		Cycles:       report.Cycles,
		Instructions: report.Instructions,
		CPI:          report.CPI,
		IPC:          report.IPC,
		Stalls:       stats.Stalls,
		Flushes:      stats.Flushes,
	}
	if err != nil {
		result.Error = err.Error()
	}
	if dc, ok := c.DCacheStats(); ok {
		result.DCacheHits = dc.Hits
		result.DCacheMisses = dc.Misses
	}

	return c, result
}

func (h *Harness) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(h.config.Output, format, args...)
}

func (h *Harness) printCore(label string, r CoreResult) {
	h.printf("  --- %s ---\n", label)
	if r.Error != "" {
		h.printf("  Error:                %s\n", r.Error)
	}
	h.printf("  Cycles:               %d\n", r.Cycles)
	h.printf("  Instructions:         %d\n", r.Instructions)
	h.printf("  CPI:                  %.3f\n", r.CPI)
	h.printf("  IPC:                  %.3f\n", r.IPC)
	h.printf("  Stall Cycles:         %d\n", r.Stalls)
	h.printf("  Pipeline Flushes:     %d\n", r.Flushes)
	if r.DCacheHits > 0 || r.DCacheMisses > 0 {
		h.printf("  D-Cache Hits:         %d\n", r.DCacheHits)
		h.printf("  D-Cache Misses:       %d\n", r.DCacheMisses)
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	h.printf("=== rvsim Benchmark Results ===\n\n")

	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}

		h.printf("Benchmark: %s [%s]\n", r.Name, status)
		h.printf("  Description: %s\n", r.Description)
		h.printf("  Result: %d (expected %d)\n", r.ResultValue, r.Expected)
		h.printf("  Equivalent: %v\n", r.Equivalent)
		h.printCore("Single Stage", r.SingleStage)
		h.printCore("Five Stage", r.FiveStage)
		if h.config.Verbose {
			h.printf("  Wall Time: %v\n", r.WallTime)
		}
		h.printf("\n")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	h.printf("name,ss_cycles,ss_instructions,ss_cpi,fs_cycles,fs_instructions,fs_cpi,fs_ipc," +
		"fs_stalls,fs_flushes,dcache_hits,dcache_misses,result,expected,equivalent\n")

	for _, r := range results {
		h.printf("%s,%d,%d,%.3f,%d,%d,%.3f,%.3f,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SingleStage.Cycles,
			r.SingleStage.Instructions,
			r.SingleStage.CPI,
			r.FiveStage.Cycles,
			r.FiveStage.Instructions,
			r.FiveStage.CPI,
			r.FiveStage.IPC,
			r.FiveStage.Stalls,
			r.FiveStage.Flushes,
			r.FiveStage.DCacheHits,
			r.FiveStage.DCacheMisses,
			r.ResultValue,
			r.Expected,
			r.Equivalent,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	DCacheEnabled bool `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Passed is the number of benchmarks that passed
	Passed int `json:"passed"`

	// TotalInstructions is the sum of all five-stage instructions
	TotalInstructions uint64 `json:"total_instructions"`

	// SingleStageCPI and FiveStageCPI are aggregate cycles per instruction
	SingleStageCPI float64 `json:"single_stage_cpi"`
	FiveStageCPI   float64 `json:"five_stage_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Version is reported in JSON output.
const Version = "0.1.0"

// Summarize computes aggregate statistics.
func Summarize(results []BenchmarkResult) ReportSummary {
	var ssCycles, fsCycles, instructions uint64
	summary := ReportSummary{TotalBenchmarks: len(results)}

	for _, r := range results {
		ssCycles += r.SingleStage.Cycles
		fsCycles += r.FiveStage.Cycles
		instructions += r.FiveStage.Instructions
		summary.TotalWallTime += r.WallTime
		if r.Passed() {
			summary.Passed++
		}
	}

	summary.TotalInstructions = instructions
	if instructions > 0 {
		summary.SingleStageCPI = float64(ssCycles) / float64(instructions)
		summary.FiveStageCPI = float64(fsCycles) / float64(instructions)
	}
	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			Version:       Version,
			DCacheEnabled: h.config.EnableDCache,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
