package insts

import (
	"encoding/binary"
	"fmt"
)

var rTypeFunct = map[Op][2]uint32{
	OpADD: {0b000, 0x00},
	OpSUB: {0b000, 0x20},
	OpXOR: {0b100, 0x00},
	OpOR:  {0b110, 0x00},
	OpAND: {0b111, 0x00},
}

var iTypeFunct = map[Op][2]uint32{
	OpADDI: {0b000, uint32(OpcodeOpImm)},
	OpXORI: {0b100, uint32(OpcodeOpImm)},
	OpORI:  {0b110, uint32(OpcodeOpImm)},
	OpANDI: {0b111, uint32(OpcodeOpImm)},
	OpLW:   {0b010, uint32(OpcodeLoad)},
}

var bTypeFunct = map[Op]uint32{
	OpBEQ: 0b000,
	OpBNE: 0b001,
}

func reg(r uint8) uint32 {
	return uint32(r) & 0x1F
}

// EncodeR encodes an R-type instruction. It panics on a non R-type op.
func EncodeR(op Op, rd, rs1, rs2 uint8) uint32 {
	f, ok := rTypeFunct[op]
	if !ok {
		panic(fmt.Sprintf("insts: %v is not an R-type op", op))
	}
	return f[1]<<25 | reg(rs2)<<20 | reg(rs1)<<15 | f[0]<<12 | reg(rd)<<7 | uint32(OpcodeOp)
}

// EncodeI encodes an I-type instruction (including LW). Only the low 12 bits
// of imm are kept. It panics on a non I-type op.
func EncodeI(op Op, rd, rs1 uint8, imm int32) uint32 {
	f, ok := iTypeFunct[op]
	if !ok {
		panic(fmt.Sprintf("insts: %v is not an I-type op", op))
	}
	return (uint32(imm)&0xFFF)<<20 | reg(rs1)<<15 | f[0]<<12 | reg(rd)<<7 | f[1]
}

// EncodeS encodes SW rs2, imm(rs1).
func EncodeS(rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm) & 0xFFF
	return (u>>5)<<25 | reg(rs2)<<20 | reg(rs1)<<15 | 0b010<<12 | (u&0x1F)<<7 | uint32(OpcodeStore)
}

// EncodeB encodes a conditional branch with a byte offset. It panics on a
// non B-type op.
func EncodeB(op Op, rs1, rs2 uint8, offset int32) uint32 {
	f3, ok := bTypeFunct[op]
	if !ok {
		panic(fmt.Sprintf("insts: %v is not a B-type op", op))
	}
	u := uint32(offset)
	return (u>>12)&0x1<<31 |
		(u>>5)&0x3F<<25 |
		reg(rs2)<<20 |
		reg(rs1)<<15 |
		f3<<12 |
		(u>>1)&0xF<<8 |
		(u>>11)&0x1<<7 |
		uint32(OpcodeBranch)
}

// EncodeJ encodes JAL rd, offset.
func EncodeJ(rd uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>20)&0x1<<31 |
		(u>>1)&0x3FF<<21 |
		(u>>11)&0x1<<20 |
		(u>>12)&0xFF<<12 |
		reg(rd)<<7 |
		uint32(OpcodeJAL)
}

// EncodeADD encodes ADD rd, rs1, rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpADD, rd, rs1, rs2) }

// EncodeSUB encodes SUB rd, rs1, rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpSUB, rd, rs1, rs2) }

// EncodeXOR encodes XOR rd, rs1, rs2.
func EncodeXOR(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpXOR, rd, rs1, rs2) }

// EncodeOR encodes OR rd, rs1, rs2.
func EncodeOR(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpOR, rd, rs1, rs2) }

// EncodeAND encodes AND rd, rs1, rs2.
func EncodeAND(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpAND, rd, rs1, rs2) }

// EncodeADDI encodes ADDI rd, rs1, imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpADDI, rd, rs1, imm) }

// EncodeXORI encodes XORI rd, rs1, imm.
func EncodeXORI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpXORI, rd, rs1, imm) }

// EncodeORI encodes ORI rd, rs1, imm.
func EncodeORI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpORI, rd, rs1, imm) }

// EncodeANDI encodes ANDI rd, rs1, imm.
func EncodeANDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpANDI, rd, rs1, imm) }

// EncodeLW encodes LW rd, imm(rs1).
func EncodeLW(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpLW, rd, rs1, imm) }

// EncodeSW encodes SW rs2, imm(rs1).
func EncodeSW(rs2, rs1 uint8, imm int32) uint32 { return EncodeS(rs1, rs2, imm) }

// EncodeBEQ encodes BEQ rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 { return EncodeB(OpBEQ, rs1, rs2, offset) }

// EncodeBNE encodes BNE rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 { return EncodeB(OpBNE, rs1, rs2, offset) }

// EncodeJAL encodes JAL rd, offset.
func EncodeJAL(rd uint8, offset int32) uint32 { return EncodeJ(rd, offset) }

// BuildProgram lays out instruction words as a little-endian byte image.
func BuildProgram(words ...uint32) []byte {
	return BuildProgramWithOrder(binary.LittleEndian, words...)
}

// BuildProgramWithOrder lays out instruction words using the given byte order.
func BuildProgramWithOrder(order binary.ByteOrder, words ...uint32) []byte {
	image := make([]byte, 4*len(words))
	for i, w := range words {
		order.PutUint32(image[4*i:], w)
	}
	return image
}
