package core_test

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/config"
	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/insts"
	"github.com/sarchlab/rvsim/loader"
	"github.com/sarchlab/rvsim/timing/core"
)

func program(words ...uint32) *loader.Program {
	return &loader.Program{Name: "test", Instructions: insts.BuildProgram(words...)}
}

func referenceProgram() *loader.Program {
	return program(
		insts.EncodeADDI(1, 0, 5),
		insts.EncodeADDI(2, 0, 10),
		insts.EncodeADD(3, 1, 2),
		insts.EncodeSW(3, 0, 0),
		insts.EncodeLW(4, 0, 0),
		insts.HaltWord,
	)
}

// Sums 5+4+3+2+1 into x2, storing each partial sum to memory and reading
// it back. The read is used right away, so every iteration has a load-use
// stall.
func loopProgram() *loader.Program {
	return program(
		insts.EncodeADDI(1, 0, 5),
		insts.EncodeADDI(2, 0, 0),
		insts.EncodeADD(2, 2, 1),
		insts.EncodeSW(2, 0, 8),
		insts.EncodeLW(3, 0, 8),
		insts.EncodeSUB(5, 3, 1),
		insts.EncodeADDI(1, 1, -1),
		insts.EncodeBNE(1, 0, -20),
		insts.EncodeXORI(4, 3, -1),
		insts.HaltWord,
	)
}

func newCore(kind core.Kind, prog *loader.Program, cfg *config.Config) *core.Core {
	c, err := core.New(kind, prog, cfg)
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("Core", func() {
	Describe("Kind", func() {
		It("should name kinds and result prefixes", func() {
			Expect(core.SingleStage.String()).To(Equal("Single Stage"))
			Expect(core.FiveStage.String()).To(Equal("Five Stage"))
			Expect(core.SingleStage.Prefix()).To(Equal("SS"))
			Expect(core.FiveStage.Prefix()).To(Equal("FS"))
		})
	})

	Describe("reference program", func() {
		DescribeTable("should run to the reference state",
			func(kind core.Kind, cycles uint64, cpi float64) {
				c := newCore(kind, referenceProgram(), nil)

				report, err := c.Run()
				Expect(err).NotTo(HaveOccurred())

				Expect(c.Halted()).To(BeTrue())
				Expect(report.Core).To(Equal(kind.String()))
				Expect(report.Cycles).To(Equal(cycles))
				Expect(report.Instructions).To(Equal(uint64(5)))
				Expect(report.CPI).To(BeNumerically("~", cpi, 1e-12))

				rf := c.RegFile()
				Expect(rf.X[1]).To(Equal(int32(5)))
				Expect(rf.X[2]).To(Equal(int32(10)))
				Expect(rf.X[3]).To(Equal(int32(15)))
				Expect(rf.X[4]).To(Equal(int32(15)))

				word, err := c.Memory().LoadWord(0)
				Expect(err).NotTo(HaveOccurred())
				Expect(word).To(Equal(uint32(15)))

				Expect(c.Trace().Len()).To(Equal(int(cycles)))
			},
			Entry("single stage", core.SingleStage, uint64(6), 1.2),
			Entry("five stage", core.FiveStage, uint64(9), 1.8),
		)
	})

	Describe("equivalence", func() {
		It("should leave both cores in the same architectural state", func() {
			ss := newCore(core.SingleStage, loopProgram(), nil)
			fs := newCore(core.FiveStage, loopProgram(), nil)

			_, err := ss.Run()
			Expect(err).NotTo(HaveOccurred())
			_, err = fs.Run()
			Expect(err).NotTo(HaveOccurred())

			Expect(fs.RegFile().X).To(Equal(ss.RegFile().X))
			Expect(fs.Memory().Bytes()).To(Equal(ss.Memory().Bytes()))
			Expect(fs.Stats().Instructions).To(Equal(ss.Stats().Instructions))

			Expect(ss.RegFile().X[2]).To(Equal(int32(15)))
			Expect(ss.RegFile().X[4]).To(Equal(int32(-16)))
			Expect(ss.RegFile().X[5]).To(Equal(int32(14)))
			Expect(fs.Stats().Stalls).To(Equal(uint64(5)))
			Expect(fs.Stats().Flushes).To(Equal(uint64(4)))
			Expect(ss.Stats().Stalls).To(BeZero())
		})
	})

	Describe("configuration", func() {
		It("should load the data image", func() {
			prog := program(insts.EncodeLW(1, 0, 4), insts.HaltWord)
			prog.Data = []byte{0, 0, 0, 0, 0x2A, 0, 0, 0}

			c := newCore(core.SingleStage, prog, nil)
			_, err := c.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(c.RegFile().X[1]).To(Equal(int32(42)))
		})

		It("should assemble big-endian instruction images", func() {
			cfg := config.Default()
			cfg.InstructionByteOrder = config.ByteOrderBig
			prog := &loader.Program{Instructions: insts.BuildProgramWithOrder(binary.BigEndian,
				insts.EncodeADDI(1, 0, 7), insts.HaltWord)}

			c := newCore(core.FiveStage, prog, cfg)
			_, err := c.Run()

			Expect(err).NotTo(HaveOccurred())
			Expect(c.RegFile().X[1]).To(Equal(int32(7)))
		})

		It("should reject a data image larger than the memory", func() {
			cfg := config.Default()
			cfg.DataMemorySize = 4
			prog := referenceProgram()
			prog.Data = make([]byte, 8)

			_, err := core.New(core.SingleStage, prog, cfg)
			Expect(errors.Is(err, emu.ErrMemoryAccess)).To(BeTrue())
		})

		It("should reject an invalid config", func() {
			cfg := config.Default()
			cfg.InstructionByteOrder = "middle"

			_, err := core.New(core.FiveStage, referenceProgram(), cfg)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("cycle limit", func() {
		It("should stop a core that never halts", func() {
			cfg := config.Default()
			cfg.MaxCycles = 50

			for _, kind := range []core.Kind{core.SingleStage, core.FiveStage} {
				c := newCore(kind, program(insts.EncodeJAL(0, 0)), cfg)

				report, err := c.Run()
				Expect(errors.Is(err, core.ErrCycleLimit)).To(BeTrue())
				Expect(report.Cycles).To(Equal(uint64(50)))
				Expect(c.Halted()).To(BeFalse())
			}
		})

		It("should not limit a run when max_cycles is 0", func() {
			cfg := config.Default()
			cfg.MaxCycles = 0

			_, err := newCore(core.FiveStage, loopProgram(), cfg).Run()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("fatal errors", func() {
		It("should stop on an undecodable word and keep returning the error", func() {
			for _, kind := range []core.Kind{core.SingleStage, core.FiveStage} {
				c := newCore(kind, program(insts.EncodeADDI(1, 0, 1), 0x00000000), nil)

				_, err := c.Run()
				Expect(errors.Is(err, insts.ErrDecode)).To(BeTrue())
				Expect(c.Err()).To(MatchError(err))
				Expect(c.Tick()).To(MatchError(err))
				Expect(c.Halted()).To(BeFalse())
			}
		})

		It("should stop on an out-of-range data access", func() {
			c := newCore(core.FiveStage, program(insts.EncodeLW(1, 0, 1000), insts.HaltWord), nil)

			_, err := c.Run()
			Expect(errors.Is(err, emu.ErrMemoryAccess)).To(BeTrue())

			var accessErr *emu.MemoryAccessError
			Expect(errors.As(err, &accessErr)).To(BeTrue())
			Expect(accessErr.Addr).To(Equal(uint32(1000)))
		})
	})

	Describe("undefined performance", func() {
		It("should flag a run that retires nothing without failing", func() {
			c := newCore(core.FiveStage, program(insts.HaltWord), nil)

			report, err := c.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Undefined).To(BeTrue())
			Expect(report.Cycles).To(Equal(uint64(4)))
		})
	})

	Describe("data-cache profiling", func() {
		It("should be off by default", func() {
			c := newCore(core.SingleStage, referenceProgram(), nil)
			_, ok := c.DCacheStats()
			Expect(ok).To(BeFalse())
		})

		It("should observe the same accesses on both cores", func() {
			cfg := config.Default()
			cfg.DCache.Enabled = true

			for _, kind := range []core.Kind{core.SingleStage, core.FiveStage} {
				c := newCore(kind, referenceProgram(), cfg)
				_, err := c.Run()
				Expect(err).NotTo(HaveOccurred())

				stats, ok := c.DCacheStats()
				Expect(ok).To(BeTrue())
				Expect(stats.Writes).To(Equal(uint64(1)))
				Expect(stats.Reads).To(Equal(uint64(1)))
				Expect(stats.Misses).To(Equal(uint64(1)))
				Expect(stats.Hits).To(Equal(uint64(1)))
			}
		})

		It("should not change timing", func() {
			cfg := config.Default()
			cfg.DCache.Enabled = true

			report, err := newCore(core.FiveStage, referenceProgram(), cfg).Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Cycles).To(Equal(uint64(9)))
		})
	})

	It("should expose the pipeline only for the five-stage core", func() {
		Expect(newCore(core.SingleStage, referenceProgram(), nil).Pipeline()).To(BeNil())
		Expect(newCore(core.FiveStage, referenceProgram(), nil).Pipeline()).NotTo(BeNil())
	})
})
