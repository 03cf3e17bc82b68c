package pipeline

import "github.com/sarchlab/rvsim/insts"

// ForwardSource indicates where a decode-stage operand comes from.
//
// Stages are evaluated WB, MEM, EX, ID in one cycle, so the results EX and
// MEM produce this cycle are visible to ID before the latches advance.
type ForwardSource int

const (
	// ForwardNone means the register file value is current.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means the value is the EX result of this cycle.
	ForwardFromEXMEM
	// ForwardFromMEMWB means the value is the MEM result of this cycle.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	ForwardRs1 ForwardSource
	ForwardRs2 ForwardSource
}

// Any reports whether either operand is forwarded.
func (r ForwardingResult) Any() bool {
	return r.ForwardRs1 != ForwardNone || r.ForwardRs2 != ForwardNone
}

// StallResult contains stall and flush control signals.
type StallResult struct {
	// StallIF holds the PC and IF/ID.
	StallIF bool
	// StallID holds the instruction in decode.
	StallID bool
	// InsertBubbleEX puts a bubble into ID/EX.
	InsertBubbleEX bool
	// FlushIF squashes the sequential fetch after a taken control transfer.
	FlushIF bool
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines where the source operands of inst in decode
// come from. exmem and memwb are the latches being produced this cycle.
// A load in exmem has not read memory yet and is never a source; the
// load-use stall covers that case.
func (h *HazardUnit) DetectForwarding(
	inst *insts.Instruction,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{}

	if inst == nil {
		return result
	}

	if inst.ReadsRs1() {
		result.ForwardRs1 = h.detectForwardForReg(inst.Rs1, exmem, memwb)
	}
	if inst.ReadsRs2() {
		result.ForwardRs2 = h.detectForwardForReg(inst.Rs2, exmem, memwb)
	}

	return result
}

// detectForwardForReg checks if a specific register needs forwarding.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	if reg == 0 {
		return ForwardNone
	}

	// EX/MEM holds the younger producer and takes precedence.
	if exmem.Valid && exmem.RegWrite && !exmem.MemRead && exmem.Rd == reg {
		return ForwardFromEXMEM
	}

	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// DetectLoadUseHazardDecoded detects a load-use hazard.
// loadRd is the destination of the load in ID/EX; rs1 and rs2 are the
// sources of the instruction in decode.
func (h *HazardUnit) DetectLoadUseHazardDecoded(
	loadRd uint8,
	rs1, rs2 uint8,
	usesRs1, usesRs2 bool,
) bool {
	if loadRd == 0 {
		return false
	}

	if usesRs1 && loadRd == rs1 {
		return true
	}
	if usesRs2 && loadRd == rs2 {
		return true
	}

	return false
}

// ComputeStalls computes stall and flush signals based on hazard conditions.
// A load-use stall suppresses the control transfer of the stalled
// instruction; it resolves again next cycle.
func (h *HazardUnit) ComputeStalls(loadUseHazard bool, branchTaken bool) StallResult {
	result := StallResult{}

	if loadUseHazard {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
		return result
	}

	if branchTaken {
		result.FlushIF = true
	}

	return result
}

// GetForwardedValue returns the value to use based on forwarding decision.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue int32,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) int32 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		return memwb.WriteData()
	default:
		return originalValue
	}
}
