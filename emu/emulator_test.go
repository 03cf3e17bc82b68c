package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/trace"
)

func newEmulator(buf *trace.Buffer, words ...uint32) *emu.Emulator {
	imem, err := emu.NewInstructionMemory(insts.BuildProgram(words...), 1000, nil)
	Expect(err).NotTo(HaveOccurred())

	return emu.NewEmulator(imem, emu.NewMemory(1000), emu.WithTrace(buf))
}

var _ = Describe("Emulator", func() {
	var buf *trace.Buffer

	BeforeEach(func() {
		buf = trace.NewBuffer()
	})

	Describe("reference program", func() {
		It("should produce the expected state and counters", func() {
			e := newEmulator(buf,
				insts.EncodeADDI(1, 0, 5),
				insts.EncodeADDI(2, 0, 10),
				insts.EncodeADD(3, 1, 2),
				insts.EncodeSW(3, 0, 0),
				insts.EncodeLW(4, 0, 0),
				insts.HaltWord,
			)

			Expect(e.Run()).To(Succeed())

			Expect(e.Halted()).To(BeTrue())
			Expect(e.RegFile().ReadReg(1)).To(Equal(int32(5)))
			Expect(e.RegFile().ReadReg(2)).To(Equal(int32(10)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(int32(15)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(int32(15)))

			w, err := e.Memory().LoadWord(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(15)))

			Expect(e.Stats().Cycles).To(Equal(uint64(6)))
			Expect(e.Stats().Instructions).To(Equal(uint64(5)))
		})
	})

	Describe("Step", func() {
		It("should commit one instruction per cycle", func() {
			e := newEmulator(buf, insts.EncodeADDI(1, 0, 7), insts.HaltWord)

			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Halted).To(BeFalse())
			Expect(e.RegFile().ReadReg(1)).To(Equal(int32(7)))
			Expect(e.PC()).To(Equal(uint32(4)))
		})

		It("should not advance the PC or mutate state on HALT", func() {
			e := newEmulator(buf, insts.HaltWord)

			result := e.Step()

			Expect(result.Halted).To(BeTrue())
			Expect(e.PC()).To(Equal(uint32(0)))
			Expect(e.State()).To(Equal(emu.StateHalted))
			Expect(e.Stats().Cycles).To(Equal(uint64(1)))
			Expect(e.Stats().Instructions).To(Equal(uint64(0)))

			e.Step()
			Expect(e.Stats().Cycles).To(Equal(uint64(1)))
		})

		It("should discard writes to x0", func() {
			e := newEmulator(buf,
				insts.EncodeADDI(0, 0, 5),
				insts.EncodeADD(1, 0, 0),
				insts.HaltWord,
			)

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().ReadReg(0)).To(Equal(int32(0)))
			Expect(e.RegFile().ReadReg(1)).To(Equal(int32(0)))
		})
	})

	Describe("control flow", func() {
		It("should loop with BNE until the counter reaches zero", func() {
			e := newEmulator(buf,
				insts.EncodeADDI(1, 0, 3),  // 0
				insts.EncodeADDI(2, 2, 1),  // 4
				insts.EncodeADDI(1, 1, -1), // 8
				insts.EncodeBNE(1, 0, -8),  // 12
				insts.HaltWord,             // 16
			)

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().ReadReg(2)).To(Equal(int32(3)))
			Expect(e.Stats().Instructions).To(Equal(uint64(1 + 3*3)))
			Expect(e.PC()).To(Equal(uint32(16)))
		})

		It("should fall through a BEQ that is not taken", func() {
			e := newEmulator(buf,
				insts.EncodeADDI(1, 0, 1),
				insts.EncodeBEQ(1, 0, 8),
				insts.EncodeADDI(2, 0, 2),
				insts.HaltWord,
			)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadReg(2)).To(Equal(int32(2)))
		})

		It("should link and jump on JAL", func() {
			e := newEmulator(buf,
				insts.EncodeJAL(1, 8),     // 0
				insts.EncodeADDI(2, 0, 1), // 4, skipped
				insts.EncodeADDI(3, 0, 1), // 8
				insts.HaltWord,            // 12
			)

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().ReadReg(1)).To(Equal(int32(4)))
			Expect(e.RegFile().ReadReg(2)).To(Equal(int32(0)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(int32(1)))
			Expect(e.Stats().Instructions).To(Equal(uint64(2)))
		})
	})

	Describe("errors", func() {
		It("should abort on an unsupported word", func() {
			e := newEmulator(buf, insts.EncodeADDI(1, 0, 1), 0x002091B3)

			err := e.Run()

			Expect(errors.Is(err, insts.ErrDecode)).To(BeTrue())
			Expect(e.Halted()).To(BeFalse())
			Expect(e.Step().Err).To(MatchError(err))
		})

		It("should abort on a load outside data memory", func() {
			e := newEmulator(buf,
				insts.EncodeADDI(1, 0, 1000),
				insts.EncodeLW(2, 1, 0),
				insts.HaltWord,
			)

			err := e.Run()

			Expect(errors.Is(err, emu.ErrMemoryAccess)).To(BeTrue())
			Expect(e.RegFile().ReadReg(2)).To(Equal(int32(0)))
		})

		It("should abort when execution runs off the instruction image", func() {
			imem, _ := emu.NewInstructionMemory(insts.BuildProgram(insts.EncodeJAL(0, 8)), 8, nil)
			e := emu.NewEmulator(imem, emu.NewMemory(16))

			Expect(errors.Is(e.Run(), emu.ErrMemoryAccess)).To(BeTrue())
		})
	})

	Describe("trace", func() {
		It("should record every cycle with the committed writes", func() {
			e := newEmulator(buf,
				insts.EncodeADDI(1, 0, 9),
				insts.EncodeSW(1, 0, 4),
				insts.HaltWord,
			)

			Expect(e.Run()).To(Succeed())

			records := buf.Records()
			Expect(records).To(HaveLen(3))

			Expect(records[0].Cycle).To(Equal(uint64(0)))
			Expect(records[0].PC).To(Equal(uint32(4)))
			Expect(records[0].Mnemonic).To(Equal("ADDI x1, x0, 9"))
			Expect(*records[0].RegWrite).To(Equal(trace.RegWrite{Reg: 1, Value: 9}))
			Expect(records[0].Registers[1]).To(Equal(int32(9)))

			Expect(*records[1].MemWrite).To(Equal(trace.MemWrite{Addr: 4, Value: 9}))
			Expect(records[1].RegWrite).To(BeNil())
			Expect(records[1].Nop).To(BeFalse())

			Expect(records[2].Nop).To(BeTrue())
			Expect(records[2].PC).To(Equal(uint32(8)))
			Expect(records[2].Mnemonic).To(Equal("HALT"))
		})

		It("should omit register snapshots when disabled", func() {
			imem, _ := emu.NewInstructionMemory(
				insts.BuildProgram(insts.EncodeADDI(1, 0, 9), insts.HaltWord), 8, nil)
			e := emu.NewEmulator(imem, emu.NewMemory(8),
				emu.WithTrace(buf), emu.WithRegisterTrace(false))

			Expect(e.Run()).To(Succeed())
			Expect(buf.Records()[0].Registers).To(Equal([32]int32{}))
		})
	})
})
