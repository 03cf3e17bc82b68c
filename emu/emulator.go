package emu

import (
	"fmt"

	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/trace"
)

// State is the run state of a core.
type State uint8

// Core run states. Only the five-stage core passes through StateDraining.
const (
	StateRunning State = iota
	StateDraining
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateHalted:
		return "Halted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// StepResult represents the result of simulating a single cycle.
type StepResult struct {
	// Halted is true once the core has reached its terminal state.
	Halted bool

	// Err is set if the cycle failed fatally.
	Err error
}

// Statistics holds the counters of a single-stage run.
type Statistics struct {
	// Cycles includes the halting cycle.
	Cycles uint64
	// Instructions counts committed instructions. HALT is not counted.
	Instructions uint64
}

// Emulator is the single-stage core: it commits one whole instruction per
// cycle.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	imem    *InstructionMemory
	decoder *insts.Decoder

	pc    uint32
	state State
	err   error
	stats Statistics

	trace          *trace.Buffer
	traceRegisters bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile uses a caller-provided register file.
func WithRegFile(rf *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = rf
	}
}

// WithTrace records one trace record per cycle into buf.
func WithTrace(buf *trace.Buffer) EmulatorOption {
	return func(e *Emulator) {
		e.trace = buf
	}
}

// WithRegisterTrace controls whether trace records carry a register
// snapshot.
func WithRegisterTrace(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.traceRegisters = enabled
	}
}

// NewEmulator creates a single-stage core over imem and memory, starting
// at PC 0.
func NewEmulator(imem *InstructionMemory, memory *Memory, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:        &RegFile{},
		memory:         memory,
		imem:           imem,
		decoder:        insts.NewDecoder(),
		traceRegisters: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's data memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the current program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// State returns the run state.
func (e *Emulator) State() State {
	return e.state
}

// Halted reports whether the core has executed HALT.
func (e *Emulator) Halted() bool {
	return e.state == StateHalted
}

// Stats returns the run counters.
func (e *Emulator) Stats() Statistics {
	return e.stats
}

// InstructionCount returns the number of committed instructions.
func (e *Emulator) InstructionCount() uint64 {
	return e.stats.Instructions
}

// Step simulates one cycle.
func (e *Emulator) Step() StepResult {
	if e.state == StateHalted {
		return StepResult{Halted: true}
	}
	if e.err != nil {
		return StepResult{Err: e.err}
	}

	e.stats.Cycles++
	rec := trace.Record{Cycle: e.stats.Cycles - 1}

	inst, err := e.fetchDecode()
	if err != nil {
		return e.fail(err)
	}

	if inst.IsHalt() {
		e.state = StateHalted
		rec.Mnemonic = inst.String()
		e.record(rec)
		log.Debug(log.SingleStageModule, "halted",
			"cycle", e.stats.Cycles, "pc", e.pc, "instructions", e.stats.Instructions)
		return StepResult{Halted: true}
	}

	if err := e.execute(inst, &rec); err != nil {
		return e.fail(err)
	}

	e.stats.Instructions++
	rec.Mnemonic = inst.String()
	e.record(rec)

	return StepResult{}
}

// Run steps until HALT or a fatal error.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

func (e *Emulator) fetchDecode() (*insts.Instruction, error) {
	word, err := e.imem.Fetch(e.pc)
	if err != nil {
		return nil, err
	}
	inst, err := e.decoder.Decode(word)
	if err != nil {
		return nil, fmt.Errorf("pc 0x%08X: %w", e.pc, err)
	}
	return inst, nil
}

// execute commits inst and advances the PC.
func (e *Emulator) execute(inst *insts.Instruction, rec *trace.Record) error {
	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)
	nextPC := e.pc + 4

	switch inst.Format {
	case insts.FormatR:
		e.writeReg(inst.Rd, Compute(inst.Op, rs1, rs2), rec)
	case insts.FormatI:
		if inst.IsLoad() {
			addr := uint32(Compute(inst.Op, rs1, inst.Imm))
			value, err := e.memory.LoadWord(addr)
			if err != nil {
				return fmt.Errorf("pc 0x%08X: %w", e.pc, err)
			}
			e.writeReg(inst.Rd, int32(value), rec)
		} else {
			e.writeReg(inst.Rd, Compute(inst.Op, rs1, inst.Imm), rec)
		}
	case insts.FormatS:
		addr := uint32(Compute(inst.Op, rs1, inst.Imm))
		if err := e.memory.StoreWord(addr, uint32(rs2)); err != nil {
			return fmt.Errorf("pc 0x%08X: %w", e.pc, err)
		}
		rec.MemWrite = &trace.MemWrite{Addr: addr, Value: uint32(rs2)}
	case insts.FormatB:
		if BranchTaken(inst.Op, rs1, rs2) {
			nextPC = BranchTarget(e.pc, inst.Imm)
		}
	case insts.FormatJ:
		e.writeReg(inst.Rd, Compute(inst.Op, int32(e.pc), 0), rec)
		nextPC = BranchTarget(e.pc, inst.Imm)
	default:
		return fmt.Errorf("pc 0x%08X: unexecutable format %v", e.pc, inst.Format)
	}

	e.pc = nextPC
	return nil
}

func (e *Emulator) writeReg(rd uint8, value int32, rec *trace.Record) {
	e.regFile.WriteReg(rd, value)
	if rd != 0 {
		rec.RegWrite = &trace.RegWrite{Reg: rd, Value: value}
	}
}

func (e *Emulator) record(rec trace.Record) {
	if e.trace == nil {
		return
	}
	rec.PC = e.pc
	rec.Nop = e.state == StateHalted
	if e.traceRegisters {
		rec.Registers = e.regFile.Snapshot()
	}
	e.trace.Append(rec)
}

func (e *Emulator) fail(err error) StepResult {
	e.err = err
	log.Error(log.SingleStageModule, "run aborted", "cycle", e.stats.Cycles, "err", err)
	return StepResult{Err: err}
}
