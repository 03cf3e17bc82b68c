package perf_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/timing/perf"
)

var _ = Describe("Compute", func() {
	It("should derive CPI and IPC", func() {
		r, err := perf.Compute(perf.FiveStage, 9, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Core).To(Equal(perf.FiveStage))
		Expect(r.CPI).To(Equal(1.8))
		Expect(r.IPC).To(BeNumerically("~", 5.0/9.0, 1e-12))
		Expect(r.Undefined).To(BeFalse())
	})

	It("should report CPI 1.2 for the single-stage reference run", func() {
		r, err := perf.Compute(perf.SingleStage, 6, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.CPI).To(BeNumerically("~", 1.2, 1e-12))
		Expect(r.IPC).To(BeNumerically("~", 5.0/6.0, 1e-12))
	})

	It("should flag a run without instructions", func() {
		r, err := perf.Compute(perf.FiveStage, 4, 0)

		Expect(errors.Is(err, perf.ErrDivisionUndefined)).To(BeTrue())
		Expect(r.Undefined).To(BeTrue())
		Expect(r.CPI).To(BeZero())
		Expect(r.IPC).To(BeZero())
		Expect(r.Cycles).To(Equal(uint64(4)))
	})

	It("should render a summary line", func() {
		r, _ := perf.Compute(perf.FiveStage, 9, 5)
		Expect(r.String()).To(Equal("Five Stage: cycles=9 instructions=5 CPI=1.800 IPC=0.556"))

		u, _ := perf.Compute(perf.SingleStage, 1, 0)
		Expect(u.String()).To(ContainSubstring("CPI=undefined"))
	})
})
