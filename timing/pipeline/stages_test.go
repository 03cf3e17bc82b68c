package pipeline_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/timing/pipeline"
)

var _ = Describe("Pipeline Stages", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		memory = emu.NewMemory(64)
	})

	Describe("FetchStage", func() {
		It("should fetch sequential instructions", func() {
			imem, err := emu.NewInstructionMemory(
				insts.BuildProgram(insts.EncodeADDI(1, 0, 5), insts.EncodeSUB(3, 1, 2)), 16, nil)
			Expect(err).NotTo(HaveOccurred())
			fetchStage := pipeline.NewFetchStage(imem)

			word1, err1 := fetchStage.Fetch(0)
			word2, err2 := fetchStage.Fetch(4)

			Expect(err1).NotTo(HaveOccurred())
			Expect(err2).NotTo(HaveOccurred())
			Expect(word1).To(Equal(uint32(0x00500093)))
			Expect(word2).To(Equal(uint32(0x402081B3)))
		})

		It("should fail past the end of instruction memory", func() {
			imem, _ := emu.NewInstructionMemory(nil, 8, nil)

			_, err := pipeline.NewFetchStage(imem).Fetch(8)

			Expect(errors.Is(err, emu.ErrMemoryAccess)).To(BeTrue())
		})
	})

	Describe("DecodeStage", func() {
		var decodeStage *pipeline.DecodeStage

		BeforeEach(func() {
			decodeStage = pipeline.NewDecodeStage(regFile)
			regFile.WriteReg(1, 100)
			regFile.WriteReg(2, 7)
		})

		It("should decode ADD and read both operands", func() {
			result, err := decodeStage.Decode(insts.EncodeADD(3, 1, 2), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Rs1Value).To(Equal(int32(100)))
			Expect(result.Rs2Value).To(Equal(int32(7)))
			Expect(result.RegWrite).To(BeTrue())
			Expect(result.ALUOp).To(BeTrue())
			Expect(result.IsIType).To(BeFalse())
		})

		It("should decode LW and set control signals", func() {
			result, err := decodeStage.Decode(insts.EncodeLW(4, 1, 0), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.MemRead).To(BeTrue())
			Expect(result.MemToReg).To(BeTrue())
			Expect(result.RegWrite).To(BeTrue())
			Expect(result.IsIType).To(BeTrue())
		})

		It("should decode SW and set control signals", func() {
			result, err := decodeStage.Decode(insts.EncodeSW(2, 1, 4), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.MemWrite).To(BeTrue())
			Expect(result.RegWrite).To(BeFalse())
			Expect(result.Rs2Value).To(Equal(int32(7)))
		})

		It("should not set RegWrite when the destination is x0", func() {
			result, err := decodeStage.Decode(insts.EncodeADDI(0, 1, 1), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.RegWrite).To(BeFalse())
		})

		It("should resolve branches with the final operands", func() {
			result, err := decodeStage.Decode(insts.EncodeBNE(1, 2, -8), 16)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsBranch).To(BeTrue())

			taken, target := result.ResolveBranch(16)
			Expect(taken).To(BeTrue())
			Expect(target).To(Equal(uint32(8)))

			result.Rs2Value = result.Rs1Value
			taken, _ = result.ResolveBranch(16)
			Expect(taken).To(BeFalse())
		})

		It("should resolve JAL as taken", func() {
			result, err := decodeStage.Decode(insts.EncodeJAL(1, 12), 4)
			Expect(err).NotTo(HaveOccurred())

			taken, target := result.ResolveBranch(4)
			Expect(taken).To(BeTrue())
			Expect(target).To(Equal(uint32(16)))
		})

		It("should report unsupported words", func() {
			_, err := decodeStage.Decode(0x002091B3, 8)

			Expect(errors.Is(err, insts.ErrDecode)).To(BeTrue())
		})
	})

	Describe("ExecuteStage", func() {
		var (
			executeStage *pipeline.ExecuteStage
			decoder      *insts.Decoder
		)

		BeforeEach(func() {
			executeStage = pipeline.NewExecuteStage()
			decoder = insts.NewDecoder()
		})

		idex := func(word uint32, pc uint32, rs1, rs2 int32) *pipeline.IDEXRegister {
			inst, err := decoder.Decode(word)
			Expect(err).NotTo(HaveOccurred())
			return &pipeline.IDEXRegister{
				Valid:    true,
				PC:       pc,
				Inst:     inst,
				Rs1Value: rs1,
				Rs2Value: rs2,
				Imm:      inst.Imm,
				ALUOp:    inst.Format != insts.FormatB,
			}
		}

		It("should execute R-type ops", func() {
			Expect(executeStage.Execute(idex(insts.EncodeSUB(3, 1, 2), 0, 10, 15)).ALUResult).
				To(Equal(int32(-5)))
		})

		It("should use the immediate for I-type ops", func() {
			Expect(executeStage.Execute(idex(insts.EncodeANDI(3, 1, 0xF), 0, 0xAB, 99)).ALUResult).
				To(Equal(int32(0xB)))
		})

		It("should compute store address and value", func() {
			result := executeStage.Execute(idex(insts.EncodeSW(2, 1, -4), 0, 12, 77))

			Expect(result.ALUResult).To(Equal(int32(8)))
			Expect(result.StoreValue).To(Equal(int32(77)))
		})

		It("should compute the JAL link value", func() {
			Expect(executeStage.Execute(idex(insts.EncodeJAL(1, 64), 20, 0, 0)).ALUResult).
				To(Equal(int32(24)))
		})

		It("should return an empty result for branches and bubbles", func() {
			Expect(executeStage.Execute(idex(insts.EncodeBEQ(1, 2, 8), 0, 1, 1))).
				To(Equal(pipeline.ExecuteResult{}))
			Expect(executeStage.Execute(&pipeline.IDEXRegister{})).
				To(Equal(pipeline.ExecuteResult{}))
		})
	})

	Describe("MemoryStage", func() {
		var memoryStage *pipeline.MemoryStage

		BeforeEach(func() {
			memoryStage = pipeline.NewMemoryStage(memory)
		})

		It("should store and load a word", func() {
			_, err := memoryStage.Access(&pipeline.EXMEMRegister{
				Valid: true, MemWrite: true, ALUResult: 8, StoreValue: -2,
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := memoryStage.Access(&pipeline.EXMEMRegister{
				Valid: true, MemRead: true, ALUResult: 8,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.MemData).To(Equal(int32(-2)))
		})

		It("should ignore bubbles", func() {
			result, err := memoryStage.Access(&pipeline.EXMEMRegister{MemRead: true, ALUResult: 1 << 20})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.MemData).To(Equal(int32(0)))
		})

		It("should fail on an out-of-range access", func() {
			_, err := memoryStage.Access(&pipeline.EXMEMRegister{
				Valid: true, MemRead: true, ALUResult: 62,
			})

			Expect(errors.Is(err, emu.ErrMemoryAccess)).To(BeTrue())
		})
	})

	Describe("WritebackStage", func() {
		var writebackStage *pipeline.WritebackStage

		BeforeEach(func() {
			writebackStage = pipeline.NewWritebackStage(regFile)
		})

		It("should write loaded data when MemToReg is set", func() {
			retired := writebackStage.Writeback(&pipeline.MEMWBRegister{
				Valid: true, RegWrite: true, MemToReg: true, Rd: 5, ALUResult: 1, MemData: 42,
			})

			Expect(retired).To(BeTrue())
			Expect(regFile.ReadReg(5)).To(Equal(int32(42)))
		})

		It("should retire instructions without a destination", func() {
			Expect(writebackStage.Writeback(&pipeline.MEMWBRegister{Valid: true})).To(BeTrue())
		})

		It("should not retire bubbles or the halt marker", func() {
			Expect(writebackStage.Writeback(&pipeline.MEMWBRegister{})).To(BeFalse())
			Expect(writebackStage.Writeback(&pipeline.MEMWBRegister{Halt: true})).To(BeFalse())
		})
	})
})
