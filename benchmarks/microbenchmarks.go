package benchmarks

import "github.com/sarchlab/rvsim/insts"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets a specific pipeline behavior.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		reference(),
		arithmeticSequential(),
		dependencyChain(),
		loadUseChain(),
		memorySequential(),
		countedLoop(),
		jumpSkip(),
		mixedOperations(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: straight
// line code, a loop and a load-use chain.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		reference(),
		countedLoop(),
		loadUseChain(),
	}
}

// GetBenchmark returns the named microbenchmark.
func GetBenchmark(name string) (Benchmark, bool) {
	for _, b := range GetMicrobenchmarks() {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// 0. Reference - add, store, load back
func reference() Benchmark {
	return Benchmark{
		Name:        "reference",
		Description: "ADDI, ADDI, ADD, SW, LW - one pass through every unit",
		Program: insts.BuildProgram(
			insts.EncodeADDI(1, 0, 5),
			insts.EncodeADDI(2, 0, 10),
			insts.EncodeADD(3, 1, 2),
			insts.EncodeSW(3, 0, 0),
			insts.EncodeLW(4, 0, 0),
			insts.HaltWord,
		),
		ResultReg: 4,
		Expected:  15,
	}
}

// 1. Arithmetic Sequential - Tests ALU throughput with independent operations
func arithmeticSequential() Benchmark {
	words := make([]uint32, 0, 21)
	for i := 0; i < 4; i++ {
		for rd := uint8(1); rd <= 5; rd++ {
			words = append(words, insts.EncodeADDI(rd, rd, 1))
		}
	}
	words = append(words, insts.HaltWord)

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 ADDIs over 5 registers - measures ALU throughput",
		Program:     insts.BuildProgram(words...),
		ResultReg:   1,
		Expected:    4,
	}
}

// 2. Dependency Chain - Tests forwarding with back-to-back RAW hazards
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDIs (x1 = x1 + 1) - measures forwarding",
		Program:     buildDependencyChain(20),
		ResultReg:   1,
		Expected:    20,
	}
}

func buildDependencyChain(n int) []byte {
	words := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		words = append(words, insts.EncodeADDI(1, 1, 1))
	}
	words = append(words, insts.HaltWord)
	return insts.BuildProgram(words...)
}

// 3. Load-Use Chain - Every load feeds the next instruction
func loadUseChain() Benchmark {
	words := make([]uint32, 0, 21)
	for i := 0; i < 10; i++ {
		words = append(words,
			insts.EncodeLW(2, 0, 0),
			insts.EncodeADD(3, 3, 2),
		)
	}
	words = append(words, insts.HaltWord)

	return Benchmark{
		Name:        "load_use_chain",
		Description: "10 LW/ADD pairs with the loaded value used at once - measures load-use stalls",
		Program:     insts.BuildProgram(words...),
		Data:        []byte{7, 0, 0, 0},
		ResultReg:   3,
		Expected:    70,
	}
}

// 4. Memory Sequential - Store/load pairs over consecutive words
func memorySequential() Benchmark {
	words := []uint32{insts.EncodeADDI(1, 0, 42)}
	for i := int32(0); i < 10; i++ {
		// Each store reads the register the previous load wrote.
		words = append(words,
			insts.EncodeSW(1, 0, 4*i),
			insts.EncodeLW(1, 0, 4*i),
		)
	}
	words = append(words, insts.HaltWord)

	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to sequential words - measures memory access and cache locality",
		Program:     insts.BuildProgram(words...),
		ResultReg:   1,
		Expected:    42,
	}
}

// 5. Counted Loop - BNE loop with a decrementing counter
func countedLoop() Benchmark {
	return Benchmark{
		Name:        "counted_loop",
		Description: "10-iteration BNE loop - measures taken-branch flushes",
		Program: insts.BuildProgram(
			insts.EncodeADDI(1, 0, 10),
			insts.EncodeADDI(2, 0, 0),
			// loop:
			insts.EncodeADDI(2, 2, 3),
			insts.EncodeADDI(1, 1, -1),
			insts.EncodeBNE(1, 0, -8),
			insts.HaltWord,
		),
		ResultReg: 2,
		Expected:  30,
	}
}

// 6. Jump Skip - Unconditional jumps over dead instructions
func jumpSkip() Benchmark {
	words := make([]uint32, 0, 16)
	for i := 0; i < 5; i++ {
		words = append(words,
			insts.EncodeJAL(0, 8),
			insts.EncodeADDI(5, 5, 100), // skipped
			insts.EncodeADDI(6, 6, 1),
		)
	}
	words = append(words, insts.HaltWord)

	return Benchmark{
		Name:        "jump_skip",
		Description: "5 JALs each skipping one instruction - measures jump redirects",
		Program:     insts.BuildProgram(words...),
		ResultReg:   6,
		Expected:    5,
	}
}

// 7. Mixed Operations - Every supported instruction class
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "logic ops, a store/load round trip and a taken BEQ on a loaded value",
		Program: insts.BuildProgram(
			insts.EncodeADDI(1, 0, 12),
			insts.EncodeADDI(2, 0, 10),
			insts.EncodeXOR(3, 1, 2), // 6
			insts.EncodeOR(4, 1, 2),  // 14
			insts.EncodeAND(5, 1, 2), // 8
			insts.EncodeSUB(6, 4, 5), // 6
			insts.EncodeSW(6, 0, 16),
			insts.EncodeLW(7, 0, 16),
			insts.EncodeBEQ(7, 3, 8),
			insts.EncodeADDI(8, 0, -1),    // skipped
			insts.EncodeORI(9, 7, 0xF0),   // 0xF6
			insts.EncodeANDI(10, 9, 0x0F), // 6
			insts.EncodeXORI(11, 10, -1),  // -7
			insts.HaltWord,
		),
		ResultReg: 11,
		Expected:  -7,
	}
}
