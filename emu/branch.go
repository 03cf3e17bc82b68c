package emu

import "github.com/sarchlab/rvsim/insts"

// BranchTaken reports whether a control instruction redirects fetch.
// JAL is always taken; non-control ops are never taken.
func BranchTaken(op insts.Op, a, b int32) bool {
	switch op {
	case insts.OpBEQ:
		return a == b
	case insts.OpBNE:
		return a != b
	case insts.OpJAL:
		return true
	default:
		return false
	}
}

// BranchTarget returns pc + offset with 32-bit wraparound.
func BranchTarget(pc uint32, offset int32) uint32 {
	return pc + uint32(offset)
}
