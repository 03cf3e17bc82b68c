package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvsim/emu"
	"github.com/sarchlab/rvsim/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// 256B, 2-way, 16B lines = 8 sets; addresses 128 bytes apart share a set.
		c = cache.New(cache.DefaultL1DConfig())
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0x40)
			Expect(result.Hit).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on a resident block", func() {
			c.Read(0x40)

			Expect(c.Read(0x40).Hit).To(BeTrue())
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should hit on different addresses in the same line", func() {
			c.Read(0x40)

			Expect(c.Read(0x4C).Hit).To(BeTrue())
			Expect(c.Contains(0x44)).To(BeTrue())
			Expect(c.Contains(0x50)).To(BeFalse())
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			Expect(c.Write(0x10).Hit).To(BeFalse())
			Expect(c.Read(0x10).Hit).To(BeTrue())
		})
	})

	Describe("Eviction", func() {
		It("should evict the least recently used way", func() {
			c.Read(0)
			c.Read(128)
			c.Read(0)

			result := c.Read(256)

			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint64(128)))
			Expect(c.Contains(0)).To(BeTrue())
			Expect(c.Contains(128)).To(BeFalse())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(0)))
		})

		It("should count a writeback for a dirty victim", func() {
			c.Write(0)
			c.Read(128)
			c.Read(128)

			c.Read(256)

			Expect(c.Contains(0)).To(BeFalse())
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})
	})

	Describe("Flush", func() {
		It("should count dirty blocks and invalidate everything", func() {
			c.Write(0x00)
			c.Write(0x20)
			c.Read(0x40)

			c.Flush()

			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.Contains(0x00)).To(BeFalse())
			Expect(c.Contains(0x40)).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("should clear blocks and statistics", func() {
			c.Write(0x00)

			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Contains(0x00)).To(BeFalse())
		})
	})

	Describe("as a memory observer", func() {
		It("should profile word accesses without touching data", func() {
			memory := emu.NewMemory(64)
			memory.SetObserver(c)

			Expect(memory.StoreWord(8, 0xAB)).To(Succeed())
			w, err := memory.LoadWord(8)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xAB)))
			_, _ = memory.LoadWord(12)

			stats := c.Stats()
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.Hits).To(Equal(uint64(2)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.HitRate()).To(BeNumerically("~", 2.0/3.0, 1e-12))
		})
	})

	Describe("Config", func() {
		It("should describe the default geometry", func() {
			config := cache.DefaultL1DConfig()

			Expect(config.Validate()).To(Succeed())
			Expect(config.NumSets()).To(Equal(8))
		})

		It("should reject unusable geometries", func() {
			Expect(cache.Config{Size: 0, Associativity: 1, BlockSize: 16}.Validate()).NotTo(Succeed())
			Expect(cache.Config{Size: 96, Associativity: 2, BlockSize: 12}.Validate()).NotTo(Succeed())
			Expect(cache.Config{Size: 100, Associativity: 2, BlockSize: 16}.Validate()).NotTo(Succeed())
		})
	})
})
