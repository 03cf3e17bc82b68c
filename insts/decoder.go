// Package insts provides RV32I instruction definitions and decoding.
package insts

import (
	"errors"
	"fmt"
)

// Op represents a supported RV32I operation.
type Op uint8

// RV32I operations.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpXOR
	OpOR
	OpAND
	OpADDI
	OpXORI
	OpORI
	OpANDI
	OpLW
	OpSW
	OpJAL
	OpBEQ
	OpBNE
	OpHALT
)

var opNames = [...]string{
	OpUnknown: "UNKNOWN",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpXOR:     "XOR",
	OpOR:      "OR",
	OpAND:     "AND",
	OpADDI:    "ADDI",
	OpXORI:    "XORI",
	OpORI:     "ORI",
	OpANDI:    "ANDI",
	OpLW:      "LW",
	OpSW:      "SW",
	OpJAL:     "JAL",
	OpBEQ:     "BEQ",
	OpBNE:     "BNE",
	OpHALT:    "HALT",
}

// String returns the mnemonic of the operation.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register
	FormatI              // Register-immediate and loads
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatJ              // Jump and link
	FormatHalt           // HALT sentinel
)

// Major opcodes (bits [6:0]).
const (
	OpcodeLoad   uint8 = 0x03
	OpcodeOpImm  uint8 = 0x13
	OpcodeStore  uint8 = 0x23
	OpcodeOp     uint8 = 0x33
	OpcodeBranch uint8 = 0x63
	OpcodeJAL    uint8 = 0x6F
)

// HaltWord is the reserved all-ones word that stops a core.
const HaltWord uint32 = 0xFFFFFFFF

// ErrDecode is the sentinel wrapped by every DecodeError.
var ErrDecode = errors.New("unsupported instruction")

// DecodeError reports a word whose opcode/funct combination is not one of the
// supported mnemonics.
type DecodeError struct {
	Word   uint32
	Opcode uint8
	Funct3 uint8
	Funct7 uint8
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode 0x%08X: %v (opcode=0x%02X funct3=%d funct7=0x%02X)",
		e.Word, ErrDecode, e.Opcode, e.Funct3, e.Funct7)
}

// Unwrap returns ErrDecode.
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// Instruction represents a decoded RV32I instruction.
type Instruction struct {
	Word   uint32 // Raw instruction word
	Op     Op     // Operation
	Format Format // Encoding format

	Opcode uint8 // bits [6:0]
	Rd     uint8 // bits [11:7]
	Funct3 uint8 // bits [14:12]
	Rs1    uint8 // bits [19:15]
	Rs2    uint8 // bits [24:20]
	Funct7 uint8 // bits [31:25], R-type only

	// Imm is the sign-extended immediate. Branch and jump offsets are in bytes.
	Imm int32
}

// IsHalt reports whether the instruction is the HALT sentinel.
func (i *Instruction) IsHalt() bool {
	return i.Op == OpHALT
}

// IsLoad reports whether the instruction reads data memory.
func (i *Instruction) IsLoad() bool {
	return i.Op == OpLW
}

// IsStore reports whether the instruction writes data memory.
func (i *Instruction) IsStore() bool {
	return i.Op == OpSW
}

// IsBranch reports whether the instruction is a conditional branch.
func (i *Instruction) IsBranch() bool {
	return i.Op == OpBEQ || i.Op == OpBNE
}

// IsJump reports whether the instruction is an unconditional jump.
func (i *Instruction) IsJump() bool {
	return i.Op == OpJAL
}

// ReadsRs1 reports whether rs1 is a source operand.
func (i *Instruction) ReadsRs1() bool {
	switch i.Format {
	case FormatR, FormatI, FormatS, FormatB:
		return true
	}
	return false
}

// ReadsRs2 reports whether rs2 is a source operand.
func (i *Instruction) ReadsRs2() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	}
	return false
}

// WritesRd reports whether the instruction produces a register result.
// Writes targeting x0 still report true; the register file discards them.
func (i *Instruction) WritesRd() bool {
	switch i.Format {
	case FormatR, FormatI, FormatJ:
		return true
	}
	return false
}

// String returns an assembly-like rendering of the instruction.
func (i *Instruction) String() string {
	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%v x%d, x%d, x%d", i.Op, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		if i.Op == OpLW {
			return fmt.Sprintf("%v x%d, %d(x%d)", i.Op, i.Rd, i.Imm, i.Rs1)
		}
		return fmt.Sprintf("%v x%d, x%d, %d", i.Op, i.Rd, i.Rs1, i.Imm)
	case FormatS:
		return fmt.Sprintf("%v x%d, %d(x%d)", i.Op, i.Rs2, i.Imm, i.Rs1)
	case FormatB:
		return fmt.Sprintf("%v x%d, x%d, %d", i.Op, i.Rs1, i.Rs2, i.Imm)
	case FormatJ:
		return fmt.Sprintf("%v x%d, %d", i.Op, i.Rd, i.Imm)
	case FormatHalt:
		return "HALT"
	}
	return fmt.Sprintf("UNKNOWN 0x%08X", i.Word)
}

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
// The HALT sentinel decodes to an instruction with Op == OpHALT. Any other
// word outside the supported subset returns a *DecodeError.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	if word == HaltWord {
		return &Instruction{Word: word, Op: OpHALT, Format: FormatHalt}, nil
	}

	inst := &Instruction{
		Word:   word,
		Opcode: uint8(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct7: uint8((word >> 25) & 0x7F),
	}

	switch inst.Opcode {
	case OpcodeOp:
		d.decodeRType(inst)
	case OpcodeOpImm:
		d.decodeOpImm(inst)
	case OpcodeLoad:
		if inst.Funct3 == 0b010 {
			inst.Op = OpLW
			inst.Format = FormatI
			inst.Imm = immI(word)
		}
	case OpcodeStore:
		if inst.Funct3 == 0b010 {
			inst.Op = OpSW
			inst.Format = FormatS
			inst.Imm = immS(word)
		}
	case OpcodeBranch:
		d.decodeBranch(inst)
	case OpcodeJAL:
		inst.Op = OpJAL
		inst.Format = FormatJ
		inst.Imm = immJ(word)
	}

	if inst.Op == OpUnknown {
		return nil, &DecodeError{
			Word:   word,
			Opcode: inst.Opcode,
			Funct3: inst.Funct3,
			Funct7: inst.Funct7,
		}
	}

	// Fields that the format does not define are cleared so that hazard
	// detection never sees phantom source registers.
	switch inst.Format {
	case FormatI:
		inst.Rs2 = 0
		inst.Funct7 = 0
	case FormatS, FormatB:
		inst.Rd = 0
		inst.Funct7 = 0
	case FormatJ:
		inst.Rs1 = 0
		inst.Rs2 = 0
		inst.Funct3 = 0
		inst.Funct7 = 0
	}

	return inst, nil
}

// decodeRType decodes ADD, SUB, XOR, OR and AND.
// Format: funct7 | rs2 | rs1 | funct3 | rd | 0110011
func (d *Decoder) decodeRType(inst *Instruction) {
	switch {
	case inst.Funct3 == 0b000 && inst.Funct7 == 0x00:
		inst.Op = OpADD
	case inst.Funct3 == 0b000 && inst.Funct7 == 0x20:
		inst.Op = OpSUB
	case inst.Funct3 == 0b100 && inst.Funct7 == 0x00:
		inst.Op = OpXOR
	case inst.Funct3 == 0b110 && inst.Funct7 == 0x00:
		inst.Op = OpOR
	case inst.Funct3 == 0b111 && inst.Funct7 == 0x00:
		inst.Op = OpAND
	default:
		return
	}
	inst.Format = FormatR
}

// decodeOpImm decodes ADDI, XORI, ORI and ANDI.
// Format: imm[11:0] | rs1 | funct3 | rd | 0010011
func (d *Decoder) decodeOpImm(inst *Instruction) {
	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpADDI
	case 0b100:
		inst.Op = OpXORI
	case 0b110:
		inst.Op = OpORI
	case 0b111:
		inst.Op = OpANDI
	default:
		return
	}
	inst.Format = FormatI
	inst.Imm = immI(inst.Word)
}

// decodeBranch decodes BEQ and BNE.
// Format: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | 1100011
func (d *Decoder) decodeBranch(inst *Instruction) {
	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpBEQ
	case 0b001:
		inst.Op = OpBNE
	default:
		return
	}
	inst.Format = FormatB
	inst.Imm = immB(inst.Word)
}

// signExtend sign-extends the low `bits` bits of v.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// immI extracts bits [31:20].
func immI(word uint32) int32 {
	return int32(word) >> 20
}

// immS concatenates bits [31:25] and [11:7].
func immS(word uint32) int32 {
	imm := (word>>25)<<5 | (word>>7)&0x1F
	return signExtend(imm, 12)
}

// immB reassembles bits [31], [7], [30:25], [11:8] and scales by 2.
func immB(word uint32) int32 {
	imm := (word>>31)&0x1<<12 |
		(word>>7)&0x1<<11 |
		(word>>25)&0x3F<<5 |
		(word>>8)&0xF<<1
	return signExtend(imm, 13)
}

// immJ reassembles bits [31], [19:12], [20], [30:21] and scales by 2.
func immJ(word uint32) int32 {
	imm := (word>>31)&0x1<<20 |
		(word>>12)&0xFF<<12 |
		(word>>20)&0x1<<11 |
		(word>>21)&0x3FF<<1
	return signExtend(imm, 21)
}
