package pipeline

import (
	"fmt"

	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/insts"
)

// FetchStage handles instruction fetch from instruction memory.
type FetchStage struct {
	imem *emu.InstructionMemory
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(imem *emu.InstructionMemory) *FetchStage {
	return &FetchStage{imem: imem}
}

// Fetch reads the instruction word at the given PC.
func (s *FetchStage) Fetch(pc uint32) (uint32, error) {
	return s.imem.Fetch(pc)
}

// DecodeStage handles instruction decode and register read.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// DecodeResult holds the result of the decode stage.
type DecodeResult struct {
	Inst     *insts.Instruction
	Rs1Value int32
	Rs2Value int32

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Control signals.
	IsIType  bool
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
	IsBranch bool
	ALUOp    bool
}

// Decode decodes the instruction and reads register values.
func (s *DecodeStage) Decode(word uint32, pc uint32) (DecodeResult, error) {
	inst, err := s.decoder.Decode(word)
	if err != nil {
		return DecodeResult{}, fmt.Errorf("pc 0x%08X: %w", pc, err)
	}

	result := DecodeResult{
		Inst:     inst,
		Rd:       inst.Rd,
		Rs1:      inst.Rs1,
		Rs2:      inst.Rs2,
		Rs1Value: s.regFile.ReadReg(inst.Rs1),
		Rs2Value: s.regFile.ReadReg(inst.Rs2),
	}

	result.RegWrite = inst.WritesRd() && inst.Rd != 0
	result.IsBranch = inst.IsBranch() || inst.IsJump()

	switch inst.Format {
	case insts.FormatR:
		result.ALUOp = true
	case insts.FormatI:
		result.ALUOp = true
		result.IsIType = true
		result.MemRead = inst.IsLoad()
		result.MemToReg = inst.IsLoad()
	case insts.FormatS:
		result.ALUOp = true
		result.MemWrite = true
	case insts.FormatJ:
		result.ALUOp = true
	}

	return result, nil
}

// ResolveBranch evaluates a control instruction with the final operand
// values and returns whether it is taken and its target.
func (r *DecodeResult) ResolveBranch(pc uint32) (bool, uint32) {
	if !r.IsBranch {
		return false, 0
	}
	if !emu.BranchTaken(r.Inst.Op, r.Rs1Value, r.Rs2Value) {
		return false, 0
	}
	return true, emu.BranchTarget(pc, r.Inst.Imm)
}

// ExecuteStage handles ALU operations and address calculation.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// ExecuteResult holds the result of the execute stage.
type ExecuteResult struct {
	ALUResult  int32
	StoreValue int32
}

// Execute performs ALU operations or address calculation.
func (s *ExecuteStage) Execute(idex *IDEXRegister) ExecuteResult {
	result := ExecuteResult{}
	inst := idex.Inst

	if inst == nil || !idex.ALUOp {
		return result
	}

	switch inst.Format {
	case insts.FormatR:
		result.ALUResult = emu.Compute(inst.Op, idex.Rs1Value, idex.Rs2Value)
	case insts.FormatI:
		result.ALUResult = emu.Compute(inst.Op, idex.Rs1Value, idex.Imm)
	case insts.FormatS:
		result.ALUResult = emu.Compute(inst.Op, idex.Rs1Value, idex.Imm)
		result.StoreValue = idex.Rs2Value
	case insts.FormatJ:
		result.ALUResult = emu.Compute(inst.Op, int32(idex.PC), 0)
	}

	return result
}

// MemoryStage handles memory load/store operations.
type MemoryStage struct {
	memory *emu.Memory
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(memory *emu.Memory) *MemoryStage {
	return &MemoryStage{
		memory: memory,
	}
}

// MemoryResult holds the result of the memory stage.
type MemoryResult struct {
	MemData int32
}

// Access performs memory read or write.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (MemoryResult, error) {
	result := MemoryResult{}

	if !exmem.Valid {
		return result, nil
	}

	addr := uint32(exmem.ALUResult)
	switch {
	case exmem.MemRead:
		word, err := s.memory.LoadWord(addr)
		if err != nil {
			return result, fmt.Errorf("pc 0x%08X: %w", exmem.PC, err)
		}
		result.MemData = int32(word)
	case exmem.MemWrite:
		if err := s.memory.StoreWord(addr, uint32(exmem.StoreValue)); err != nil {
			return result, fmt.Errorf("pc 0x%08X: %w", exmem.PC, err)
		}
	}

	return result, nil
}

// WritebackStage handles register file writeback.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{
		regFile: regFile,
	}
}

// Writeback writes the result to the register file and reports whether an
// instruction retired.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) bool {
	if !memwb.Valid {
		return false
	}

	if memwb.RegWrite {
		s.regFile.WriteReg(memwb.Rd, memwb.WriteData())
	}

	return true
}
