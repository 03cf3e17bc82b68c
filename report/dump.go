package report

import (
	"io"

	"github.com/sarchlab/rvsim/trace"
)

// WriteRegisterState writes one register-file block.
func WriteRegisterState(w io.Writer, cycle uint64, regs [32]int32) error {
	ew := &errWriter{w: w}
	ew.printf("State of RF after executing cycle:\t%d\n", cycle)
	for _, v := range regs {
		ew.printf("%s\n", word(v))
	}
	return ew.err
}

// WriteRegisterTrace writes a register-file block for every record.
func WriteRegisterTrace(w io.Writer, records []trace.Record) error {
	for _, rec := range records {
		if err := WriteRegisterState(w, rec.Cycle, rec.Registers); err != nil {
			return err
		}
	}
	return nil
}

// WriteDataMemory writes one 8-bit binary line per byte.
func WriteDataMemory(w io.Writer, data []byte) error {
	ew := &errWriter{w: w}
	for _, b := range data {
		ew.printf("%08b\n", b)
	}
	return ew.err
}
