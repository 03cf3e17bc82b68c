// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RISC-V machine code into structured
// instruction representations. It supports the subset simulated by rvsim:
//   - R-type: ADD, SUB, XOR, OR, AND
//   - I-type: ADDI, XORI, ORI, ANDI, LW
//   - S-type: SW
//   - B-type: BEQ, BNE
//   - J-type: JAL
//   - the HALT sentinel word 0xFFFFFFFF
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x00500093) // ADDI x1, x0, 5
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts
