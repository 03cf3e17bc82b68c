package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/rvsim/trace"
)

const delimiter = "----------------------------------------------------------------------"

func boolName(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func word(v int32) string {
	return fmt.Sprintf("%032b", uint32(v))
}

func regAddr(r uint8) string {
	return fmt.Sprintf("%05b", r&0x1F)
}

// WriteSingleStageState writes the per-cycle fetch state of a single-stage
// run.
func WriteSingleStageState(w io.Writer, records []trace.Record) error {
	ew := &errWriter{w: w}
	for _, rec := range records {
		ew.printf("%s\n", delimiter)
		ew.printf("State after executing cycle: %d\n", rec.Cycle)
		ew.printf("IF.PC: %d\n", rec.PC)
		ew.printf("IF.nop: %s\n", boolName(rec.Nop))
	}
	return ew.err
}

// WriteFiveStageState writes the per-cycle latch contents of a five-stage
// run.
func WriteFiveStageState(w io.Writer, records []trace.Record) error {
	ew := &errWriter{w: w}
	for _, rec := range records {
		if len(rec.Stages) != 5 {
			return fmt.Errorf("cycle %d: expected 5 stage snapshots, got %d",
				rec.Cycle, len(rec.Stages))
		}

		ew.printf("%s\n", delimiter)
		ew.printf("State after executing cycle: %d\n", rec.Cycle)

		fetch := rec.Stages[trace.StageIF]
		ew.printf("IF.nop: %s\n", boolName(fetch.Nop))
		ew.printf("IF.PC: %d\n", fetch.PC)

		id := rec.Stages[trace.StageID]
		ew.printf("ID.nop: %s\n", boolName(id.Nop))
		ew.printf("ID.Instr: %032b\n", id.Word)

		ex := rec.Stages[trace.StageEX]
		ew.printf("EX.nop: %s\n", boolName(ex.Nop))
		ew.printf("EX.instr: \n")
		ew.printf("EX.Read_data1: %s\n", word(ex.Operand1))
		ew.printf("EX.Read_data2: %s\n", word(ex.Operand2))
		ew.printf("EX.Imm: %s\n", word(ex.Imm))
		ew.printf("EX.Rs: %s\n", regAddr(ex.Rs1))
		ew.printf("EX.Rt: %s\n", regAddr(ex.Rs2))
		ew.printf("EX.Wrt_reg_addr: %s\n", regAddr(ex.Rd))
		ew.printf("EX.is_I_type: %d\n", bit(ex.IsIType))
		ew.printf("EX.rd_mem: %d\n", bit(ex.MemRead))
		ew.printf("EX.wrt_mem: %d\n", bit(ex.MemWrite))
		ew.printf("EX.alu_op: %d\n", bit(ex.ALUOp))
		ew.printf("EX.wrt_enable: %d\n", bit(ex.RegWrite))

		mem := rec.Stages[trace.StageMEM]
		ew.printf("MEM.nop: %s\n", boolName(mem.Nop))
		ew.printf("MEM.instr: \n")
		ew.printf("MEM.ALUresult: %s\n", word(mem.Result))
		ew.printf("MEM.Store_data: %s\n", word(mem.StoreData))
		ew.printf("MEM.Rs: %s\n", regAddr(mem.Rs1))
		ew.printf("MEM.Rt: %s\n", regAddr(mem.Rs2))
		ew.printf("MEM.Wrt_reg_addr: %s\n", regAddr(mem.Rd))
		ew.printf("MEM.rd_mem: %d\n", bit(mem.MemRead))
		ew.printf("MEM.wrt_mem: %d\n", bit(mem.MemWrite))
		ew.printf("MEM.wrt_enable: %d\n", bit(mem.RegWrite))

		wb := rec.Stages[trace.StageWB]
		ew.printf("WB.nop: %s\n", boolName(wb.Nop))
		ew.printf("WB.instr: \n")
		ew.printf("WB.Wrt_data: %s\n", word(wb.Result))
		ew.printf("WB.Rs: %s\n", regAddr(wb.Rs1))
		ew.printf("WB.Rt: %s\n", regAddr(wb.Rs2))
		ew.printf("WB.Wrt_reg_addr: %s\n", regAddr(wb.Rd))
		ew.printf("WB.wrt_enable: %d\n", bit(wb.RegWrite))
	}
	return ew.err
}
