package emu

import "github.com/sarchlab/rvsim/insts"

// Compute evaluates the ALU for op on operands a and b. Memory ops compute
// the effective address a+b. JAL yields the link value a+4 where a is the
// instruction PC. Unknown ops and HALT produce 0.
func Compute(op insts.Op, a, b int32) int32 {
	switch op {
	case insts.OpADD, insts.OpADDI, insts.OpLW, insts.OpSW:
		return a + b
	case insts.OpSUB:
		return a - b
	case insts.OpXOR, insts.OpXORI:
		return a ^ b
	case insts.OpOR, insts.OpORI:
		return a | b
	case insts.OpAND, insts.OpANDI:
		return a & b
	case insts.OpJAL:
		return a + 4
	default:
		return 0
	}
}
