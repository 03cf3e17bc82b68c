// Package emu provides the functional RV32I units and the single-stage core.
package emu

// NumRegs is the number of architectural integer registers.
const NumRegs = 32

// RegFile represents the RV32I integer register file.
// Register x0 is hardwired to zero: reads return 0 and writes are dropped.
type RegFile struct {
	// X holds registers x0-x31. X[0] is never written.
	X [NumRegs]int32
}

// ReadReg reads a register value. Register 0 and out-of-range indices
// return 0.
func (r *RegFile) ReadReg(reg uint8) int32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to x0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value int32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.X[reg] = value
}

// Snapshot returns a copy of all registers.
func (r *RegFile) Snapshot() [NumRegs]int32 {
	return r.X
}
