// Package pipeline provides the 5-stage pipeline implementation for timing simulation.
package pipeline

import "github.com/sarchlab/rvsim/insts"

// Every latch distinguishes three contents: a real instruction (Valid), the
// halt marker (Halt) and a bubble (neither).

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains an instruction.
	Valid bool

	// Halt indicates the register carries the halt marker.
	Halt bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32
}

// Clear resets the IF/ID register to a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains an instruction.
	Valid bool

	// Halt indicates the register carries the halt marker.
	Halt bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// Operand values read in decode.
	Rs1Value int32
	Rs2Value int32
	Imm      int32

	// Register numbers for hazard detection.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Control signals.
	IsIType  bool // Second ALU operand is the immediate
	MemRead  bool // True for loads
	MemWrite bool // True for stores
	RegWrite bool // True if the instruction writes a non-zero register
	MemToReg bool // True if the result comes from memory
	ALUOp    bool // True if EX computes a result or address
}

// Clear resets the ID/EX register to a bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains an instruction.
	Valid bool

	// Halt indicates the register carries the halt marker.
	Halt bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the address for loads and stores, the result otherwise.
	ALUResult int32

	// StoreValue is the value a store writes.
	StoreValue int32

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Control signals (propagated from ID/EX).
	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
}

// Clear resets the EX/MEM register to a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains an instruction.
	Valid bool

	// Halt indicates the register carries the halt marker.
	Halt bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the result of ALU instructions.
	ALUResult int32

	// MemData is the word read by a load.
	MemData int32

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Control signals.
	RegWrite bool
	MemToReg bool
}

// Clear resets the MEM/WB register to a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}

// WriteData returns the value written back to the register file.
func (r *MEMWBRegister) WriteData() int32 {
	if r.MemToReg {
		return r.MemData
	}
	return r.ALUResult
}
