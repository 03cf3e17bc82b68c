package report

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/sarchlab/rvsim/trace"
)

func stageLabel(s trace.StageState) string {
	switch {
	case s.Halt:
		return fmt.Sprintf("%s: HALT @%d", s.Stage, s.PC)
	case s.Nop:
		return fmt.Sprintf("%s: bubble", s.Stage)
	case s.Mnemonic != "":
		return fmt.Sprintf("%s: %s @%d", s.Stage, s.Mnemonic, s.PC)
	default:
		return fmt.Sprintf("%s: %08x @%d", s.Stage, s.Word, s.PC)
	}
}

// PipelineTree renders the stage contents of a five-stage record.
func PipelineTree(rec trace.Record) treeprint.Tree {
	tree := treeprint.New()

	events := ""
	if rec.Stalled {
		events += " stall"
	}
	if rec.Flushed {
		events += " flush"
	}
	tree.SetValue(fmt.Sprintf("cycle %d%s", rec.Cycle, events))

	for _, s := range rec.Stages {
		if s.Stage == trace.StageIF {
			if s.Nop {
				tree.AddNode("IF: stopped")
			} else {
				tree.AddNode(fmt.Sprintf("IF: fetch @%d", s.PC))
			}
			continue
		}

		branch := tree.AddBranch(stageLabel(s))
		if s.Nop {
			continue
		}

		switch s.Stage {
		case trace.StageEX:
			branch.AddNode(fmt.Sprintf("rs1=x%d:%d rs2=x%d:%d imm=%d", s.Rs1, s.Operand1, s.Rs2, s.Operand2, s.Imm))
		case trace.StageMEM:
			branch.AddNode(fmt.Sprintf("alu=%d store=%d", s.Result, s.StoreData))
		case trace.StageWB:
			if s.RegWrite {
				branch.AddNode(fmt.Sprintf("x%d <- %d", s.Rd, s.Result))
			}
		}
	}

	if rec.RegWrite != nil {
		tree.AddNode(fmt.Sprintf("retired: x%d <- %d", rec.RegWrite.Reg, rec.RegWrite.Value))
	}
	if rec.MemWrite != nil {
		tree.AddNode(fmt.Sprintf("stored: mem[%d] <- %d", rec.MemWrite.Addr, int32(rec.MemWrite.Value)))
	}

	return tree
}
