package pipeline

import (
	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/trace"
)

func mnemonic(inst *insts.Instruction) string {
	if inst == nil {
		return ""
	}
	return inst.String()
}

func (r *IFIDRegister) snapshot() trace.StageState {
	s := trace.StageState{
		Stage: trace.StageID,
		Nop:   !r.Valid,
		Halt:  r.Halt,
		PC:    r.PC,
		Word:  r.InstructionWord,
	}
	if r.Halt {
		s.Word = insts.HaltWord
		s.Mnemonic = insts.OpHALT.String()
	}
	return s
}

func (r *IDEXRegister) snapshot() trace.StageState {
	s := trace.StageState{
		Stage:    trace.StageEX,
		Nop:      !r.Valid,
		Halt:     r.Halt,
		PC:       r.PC,
		Mnemonic: mnemonic(r.Inst),
		Rs1:      r.Rs1,
		Rs2:      r.Rs2,
		Rd:       r.Rd,
		Operand1: r.Rs1Value,
		Operand2: r.Rs2Value,
		Imm:      r.Imm,
		IsIType:  r.IsIType,
		MemRead:  r.MemRead,
		MemWrite: r.MemWrite,
		RegWrite: r.RegWrite,
		ALUOp:    r.ALUOp,
	}
	if r.Inst != nil {
		s.Word = r.Inst.Word
	}
	return s
}

func (r *EXMEMRegister) snapshot() trace.StageState {
	s := trace.StageState{
		Stage:     trace.StageMEM,
		Nop:       !r.Valid,
		Halt:      r.Halt,
		PC:        r.PC,
		Mnemonic:  mnemonic(r.Inst),
		Rs1:       r.Rs1,
		Rs2:       r.Rs2,
		Rd:        r.Rd,
		Result:    r.ALUResult,
		StoreData: r.StoreValue,
		MemRead:   r.MemRead,
		MemWrite:  r.MemWrite,
		RegWrite:  r.RegWrite,
	}
	if r.Inst != nil {
		s.Word = r.Inst.Word
	}
	return s
}

func (r *MEMWBRegister) snapshot() trace.StageState {
	s := trace.StageState{
		Stage:    trace.StageWB,
		Nop:      !r.Valid,
		Halt:     r.Halt,
		PC:       r.PC,
		Mnemonic: mnemonic(r.Inst),
		Rs1:      r.Rs1,
		Rs2:      r.Rs2,
		Rd:       r.Rd,
		Result:   r.WriteData(),
		MemRead:  r.MemToReg,
		RegWrite: r.RegWrite,
	}
	if r.Inst != nil {
		s.Word = r.Inst.Word
	}
	return s
}

// stageSnapshots returns the content of every stage: the fetch state
// followed by the input latch of ID, EX, MEM and WB.
func (p *Pipeline) stageSnapshots() []trace.StageState {
	return []trace.StageState{
		{Stage: trace.StageIF, Nop: p.state != emu.StateRunning, PC: p.pc},
		p.ifid.snapshot(),
		p.idex.snapshot(),
		p.exmem.snapshot(),
		p.memwb.snapshot(),
	}
}
