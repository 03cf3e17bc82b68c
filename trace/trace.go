// Package trace records per-cycle architectural snapshots of a core.
package trace

// Stage identifies a pipeline stage.
type Stage uint8

// Pipeline stages in program order.
const (
	StageIF Stage = iota
	StageID
	StageEX
	StageMEM
	StageWB
)

var stageNames = [...]string{"IF", "ID", "EX", "MEM", "WB"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "??"
}

// StageState is the content of one pipeline stage after a cycle.
type StageState struct {
	Stage Stage

	// Nop is true when the stage holds a bubble or the halt marker.
	Nop bool
	// Halt is true when the stage holds the halt marker.
	Halt bool

	PC       uint32
	Word     uint32
	Mnemonic string

	Rs1 uint8
	Rs2 uint8
	Rd  uint8

	Operand1  int32
	Operand2  int32
	Imm       int32
	Result    int32
	StoreData int32

	IsIType  bool
	MemRead  bool
	MemWrite bool
	RegWrite bool
	ALUOp    bool
}

// RegWrite describes a register write committed in a cycle.
type RegWrite struct {
	Reg   uint8
	Value int32
}

// MemWrite describes a data-memory word store committed in a cycle.
type MemWrite struct {
	Addr  uint32
	Value uint32
}

// Record is the architectural snapshot taken at the end of one cycle.
type Record struct {
	// Cycle is zero-based: the first simulated cycle is cycle 0.
	Cycle uint64

	// PC is the fetch program counter after the cycle.
	PC uint32
	// Nop is true once instruction fetch has stopped.
	Nop bool

	// Mnemonic is the instruction the single-stage core executed.
	Mnemonic string

	RegWrite *RegWrite
	MemWrite *MemWrite

	// Stalled and Flushed mark five-stage hazard events in this cycle.
	Stalled bool
	Flushed bool

	// Stages holds IF..WB for the five-stage core; nil otherwise.
	Stages []StageState

	// Registers is the register file after the cycle.
	Registers [32]int32
}

// Buffer is an append-only list of records owned by one core run.
type Buffer struct {
	records []Record
}

// NewBuffer creates an empty trace buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a record.
func (b *Buffer) Append(r Record) {
	b.records = append(b.records, r)
}

// Records returns the recorded cycles in order.
func (b *Buffer) Records() []Record {
	return b.records
}

// Len returns the number of recorded cycles.
func (b *Buffer) Len() int {
	return len(b.records)
}

// Last returns the most recent record.
func (b *Buffer) Last() (Record, bool) {
	if len(b.records) == 0 {
		return Record{}, false
	}
	return b.records[len(b.records)-1], true
}

// Reset drops every record.
func (b *Buffer) Reset() {
	b.records = nil
}
