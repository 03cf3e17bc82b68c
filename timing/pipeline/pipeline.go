package pipeline

import (
	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/trace"
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired through WB.
	Instructions uint64
	// Stalls is the number of load-use stall cycles.
	Stalls uint64
	// Flushes is the number of squashed fetches after taken branches and jumps.
	Flushes uint64
	// DataHazards is the number of decodes that took an operand from EX or MEM.
	DataHazards uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithRegFile uses a caller-provided register file.
func WithRegFile(rf *emu.RegFile) PipelineOption {
	return func(p *Pipeline) {
		p.regFile = rf
	}
}

// WithTrace records one trace record per cycle into buf.
func WithTrace(buf *trace.Buffer) PipelineOption {
	return func(p *Pipeline) {
		p.trace = buf
	}
}

// WithRegisterTrace controls whether trace records carry a register
// snapshot.
func WithRegisterTrace(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.traceRegisters = enabled
	}
}

// Pipeline implements a 5-stage pipelined RV32I core.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	// Pipeline registers
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Hazard detection
	hazardUnit *HazardUnit

	// Shared resources
	regFile *emu.RegFile
	memory  *emu.Memory
	imem    *emu.InstructionMemory

	// Fetch program counter
	pc uint32

	state emu.State
	err   error
	stats Statistics

	trace          *trace.Buffer
	traceRegisters bool
}

// NewPipeline creates a new 5-stage pipeline over imem and memory, fetching
// from PC 0.
func NewPipeline(imem *emu.InstructionMemory, memory *emu.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		regFile:        &emu.RegFile{},
		memory:         memory,
		imem:           imem,
		hazardUnit:     NewHazardUnit(),
		traceRegisters: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.fetchStage = NewFetchStage(imem)
	p.decodeStage = NewDecodeStage(p.regFile)
	p.executeStage = NewExecuteStage()
	p.memoryStage = NewMemoryStage(memory)
	p.writebackStage = NewWritebackStage(p.regFile)

	return p
}

// PC returns the fetch program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// RegFile returns the pipeline's register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Memory returns the pipeline's data memory.
func (p *Pipeline) Memory() *emu.Memory {
	return p.memory
}

// GetIFID returns the IF/ID pipeline register.
func (p *Pipeline) GetIFID() *IFIDRegister {
	return &p.ifid
}

// GetIDEX returns the ID/EX pipeline register.
func (p *Pipeline) GetIDEX() *IDEXRegister {
	return &p.idex
}

// GetEXMEM returns the EX/MEM pipeline register.
func (p *Pipeline) GetEXMEM() *EXMEMRegister {
	return &p.exmem
}

// GetMEMWB returns the MEM/WB pipeline register.
func (p *Pipeline) GetMEMWB() *MEMWBRegister {
	return &p.memwb
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// State returns the run state.
func (p *Pipeline) State() emu.State {
	return p.state
}

// Halted returns true if the pipeline has drained after HALT.
func (p *Pipeline) Halted() bool {
	return p.state == emu.StateHalted
}

// Run ticks the pipeline until it halts or fails.
func (p *Pipeline) Run() error {
	for !p.Halted() {
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles ticks at most cycles times. It returns true while the pipeline
// is still running.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !p.Halted(); i++ {
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.Halted(), nil
}

// Tick executes one pipeline cycle.
//
// Stages are evaluated in reverse order (WB→MEM→EX→ID→IF). WB writes the
// register file before ID reads it, and ID also sees the results EX and
// MEM compute this cycle. The next latch values are built locally and
// committed together at the end of the cycle.
//
// Hazard handling:
//   - A load in EX whose destination the instruction in ID reads stalls ID
//     and IF for one cycle and puts a bubble into ID/EX.
//   - BEQ, BNE and JAL resolve in ID. When taken, the PC is redirected and
//     the sequential fetch of this cycle is squashed.
//   - Fetching HALT stops fetch. The marker flows down the latches and the
//     pipeline halts when it reaches MEM/WB.
func (p *Pipeline) Tick() error {
	if p.Halted() {
		return nil
	}
	if p.err != nil {
		return p.err
	}

	p.stats.Cycles++
	rec := trace.Record{Cycle: p.stats.Cycles - 1}

	// Stage 5: Writeback
	if p.writebackStage.Writeback(&p.memwb) {
		p.stats.Instructions++
		if p.memwb.RegWrite {
			rec.RegWrite = &trace.RegWrite{Reg: p.memwb.Rd, Value: p.memwb.WriteData()}
		}
	}

	// Stage 4: Memory
	var nextMEMWB MEMWBRegister
	if p.exmem.Valid {
		memResult, err := p.memoryStage.Access(&p.exmem)
		if err != nil {
			return p.fail(err)
		}
		if p.exmem.MemWrite {
			rec.MemWrite = &trace.MemWrite{
				Addr:  uint32(p.exmem.ALUResult),
				Value: uint32(p.exmem.StoreValue),
			}
		}
		nextMEMWB = MEMWBRegister{
			Valid:     true,
			PC:        p.exmem.PC,
			Inst:      p.exmem.Inst,
			ALUResult: p.exmem.ALUResult,
			MemData:   memResult.MemData,
			Rd:        p.exmem.Rd,
			Rs1:       p.exmem.Rs1,
			Rs2:       p.exmem.Rs2,
			RegWrite:  p.exmem.RegWrite,
			MemToReg:  p.exmem.MemToReg,
		}
	} else if p.exmem.Halt {
		nextMEMWB = MEMWBRegister{Halt: true, PC: p.exmem.PC}
	}

	// Stage 3: Execute
	var nextEXMEM EXMEMRegister
	if p.idex.Valid {
		execResult := p.executeStage.Execute(&p.idex)
		nextEXMEM = EXMEMRegister{
			Valid:      true,
			PC:         p.idex.PC,
			Inst:       p.idex.Inst,
			ALUResult:  execResult.ALUResult,
			StoreValue: execResult.StoreValue,
			Rd:         p.idex.Rd,
			Rs1:        p.idex.Rs1,
			Rs2:        p.idex.Rs2,
			MemRead:    p.idex.MemRead,
			MemWrite:   p.idex.MemWrite,
			RegWrite:   p.idex.RegWrite,
			MemToReg:   p.idex.MemToReg,
		}
	} else if p.idex.Halt {
		nextEXMEM = EXMEMRegister{Halt: true, PC: p.idex.PC}
	}

	// Stage 2: Decode
	var nextIDEX IDEXRegister
	loadUseHazard := false
	branchTaken := false
	var branchTarget uint32
	if p.ifid.Valid {
		decResult, err := p.decodeStage.Decode(p.ifid.InstructionWord, p.ifid.PC)
		if err != nil {
			return p.fail(err)
		}
		inst := decResult.Inst

		if p.idex.Valid && p.idex.MemRead {
			loadUseHazard = p.hazardUnit.DetectLoadUseHazardDecoded(
				p.idex.Rd,
				decResult.Rs1,
				decResult.Rs2,
				inst.ReadsRs1(),
				inst.ReadsRs2(),
			)
		}

		if !loadUseHazard {
			forwarding := p.hazardUnit.DetectForwarding(inst, &nextEXMEM, &nextMEMWB)
			if forwarding.Any() {
				p.stats.DataHazards++
			}
			decResult.Rs1Value = p.hazardUnit.GetForwardedValue(
				forwarding.ForwardRs1, decResult.Rs1Value, &nextEXMEM, &nextMEMWB)
			decResult.Rs2Value = p.hazardUnit.GetForwardedValue(
				forwarding.ForwardRs2, decResult.Rs2Value, &nextEXMEM, &nextMEMWB)

			branchTaken, branchTarget = decResult.ResolveBranch(p.ifid.PC)
			nextIDEX = p.buildIDEX(&decResult)
		}
	} else if p.ifid.Halt {
		nextIDEX = IDEXRegister{Halt: true, PC: p.ifid.PC}
	}

	stalls := p.hazardUnit.ComputeStalls(loadUseHazard, branchTaken)

	// Stage 1: Fetch
	nextIFID := p.ifid
	switch {
	case stalls.StallIF:
		p.stats.Stalls++
		rec.Stalled = true
		log.Trace(log.FiveStageModule, "load-use stall",
			"cycle", p.stats.Cycles, "pc", p.ifid.PC)
	case stalls.FlushIF:
		nextIFID.Clear()
		p.pc = branchTarget
		p.stats.Flushes++
		rec.Flushed = true
		log.Trace(log.FiveStageModule, "control flush",
			"cycle", p.stats.Cycles, "pc", p.ifid.PC, "target", branchTarget)
	case p.state == emu.StateDraining:
		nextIFID.Clear()
	default:
		word, err := p.fetchStage.Fetch(p.pc)
		if err != nil {
			return p.fail(err)
		}
		if word == insts.HaltWord {
			nextIFID = IFIDRegister{Halt: true, PC: p.pc}
			p.state = emu.StateDraining
			log.Debug(log.FiveStageModule, "halt fetched",
				"cycle", p.stats.Cycles, "pc", p.pc)
		} else {
			nextIFID = IFIDRegister{Valid: true, PC: p.pc, InstructionWord: word}
			p.pc += 4
		}
	}

	// Latch
	p.ifid = nextIFID
	p.idex = nextIDEX
	p.exmem = nextEXMEM
	p.memwb = nextMEMWB

	if p.memwb.Halt {
		p.state = emu.StateHalted
		log.Debug(log.FiveStageModule, "halted",
			"cycle", p.stats.Cycles, "instructions", p.stats.Instructions)
	}

	p.record(rec)

	return nil
}

func (p *Pipeline) buildIDEX(d *DecodeResult) IDEXRegister {
	return IDEXRegister{
		Valid:    true,
		PC:       p.ifid.PC,
		Inst:     d.Inst,
		Rs1Value: d.Rs1Value,
		Rs2Value: d.Rs2Value,
		Imm:      d.Inst.Imm,
		Rd:       d.Rd,
		Rs1:      d.Rs1,
		Rs2:      d.Rs2,
		IsIType:  d.IsIType,
		MemRead:  d.MemRead,
		MemWrite: d.MemWrite,
		RegWrite: d.RegWrite,
		MemToReg: d.MemToReg,
		ALUOp:    d.ALUOp,
	}
}

func (p *Pipeline) record(rec trace.Record) {
	if p.trace == nil {
		return
	}
	rec.PC = p.pc
	rec.Nop = p.state != emu.StateRunning
	rec.Stages = p.stageSnapshots()
	if p.traceRegisters {
		rec.Registers = p.regFile.Snapshot()
	}
	p.trace.Append(rec)
}

func (p *Pipeline) fail(err error) error {
	p.err = err
	log.Error(log.FiveStageModule, "run aborted", "cycle", p.stats.Cycles, "err", err)
	return err
}
