// Package perf derives CPI and IPC from a core's cycle and instruction counts.
package perf

import (
	"errors"
	"fmt"
)

// Core names used in reports.
const (
	SingleStage = "Single Stage"
	FiveStage   = "Five Stage"
)

// ErrDivisionUndefined is returned when a run retired no instructions.
var ErrDivisionUndefined = errors.New("perf: CPI undefined for zero instructions")

// Report holds the performance figures of one core run.
type Report struct {
	Core         string  `json:"core"`
	Cycles       uint64  `json:"cycles"`
	Instructions uint64  `json:"instructions"`
	CPI          float64 `json:"cpi"`
	IPC          float64 `json:"ipc"`

	// Undefined is set when CPI and IPC could not be computed.
	Undefined bool `json:"undefined,omitempty"`
}

// Compute builds the report for a core. With zero instructions the ratios
// are left at 0, Undefined is set and ErrDivisionUndefined is returned
// alongside the report.
func Compute(core string, cycles, instructions uint64) (Report, error) {
	r := Report{
		Core:         core,
		Cycles:       cycles,
		Instructions: instructions,
	}

	if instructions == 0 {
		r.Undefined = true
		return r, fmt.Errorf("%s: %w", core, ErrDivisionUndefined)
	}

	r.CPI = float64(cycles) / float64(instructions)
	if cycles > 0 {
		r.IPC = float64(instructions) / float64(cycles)
	}

	return r, nil
}

// String renders the report on one line.
func (r Report) String() string {
	if r.Undefined {
		return fmt.Sprintf("%s: cycles=%d instructions=%d CPI=undefined",
			r.Core, r.Cycles, r.Instructions)
	}
	return fmt.Sprintf("%s: cycles=%d instructions=%d CPI=%.3f IPC=%.3f",
		r.Core, r.Cycles, r.Instructions, r.CPI, r.IPC)
}
