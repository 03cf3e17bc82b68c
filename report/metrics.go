package report

import (
	"io"
	"strconv"
)

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WritePerformance writes the performance summary of each core. Ratios use
// the shortest decimal that round-trips to the same float64. An undefined
// ratio is written as 0.
func WritePerformance(w io.Writer, metrics []Metrics) error {
	ew := &errWriter{w: w}
	for i, m := range metrics {
		if i > 0 {
			ew.printf("\n")
		}
		ew.printf("Performance of %s:\n", m.Core)
		ew.printf("#Cycles -> %d\n", m.Cycles)
		ew.printf("#Instructions -> %d\n", m.Instructions)
		ew.printf("CPI -> %s\n", formatRatio(m.CPI))
		ew.printf("IPC -> %s\n", formatRatio(m.IPC))

		if m.DCache != nil {
			ew.printf("#DCache Accesses -> %d\n", m.DCache.Accesses())
			ew.printf("#DCache Hits -> %d\n", m.DCache.Hits)
			ew.printf("#DCache Misses -> %d\n", m.DCache.Misses)
			ew.printf("#DCache Evictions -> %d\n", m.DCache.Evictions)
			ew.printf("DCache Hit Rate -> %s\n", formatRatio(m.DCache.HitRate()))
		}
	}
	return ew.err
}
