package gateway

import (
	"cmp"
	"slices"
)

// RankedEntry is an entry together with the record it was ranked by.
type RankedEntry struct {
	Entry  *EvaluationEntry
	Record PerformanceRecord
}

// Rank orders entries by ascending score. Records are snapshotted once so
// concurrent probes cannot reorder the result halfway through. Equal scores
// are ordered by latency, then by pool order.
func Rank(entries []*EvaluationEntry) []RankedEntry {
	ranked := make([]RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = RankedEntry{Entry: e, Record: e.Record()}
	}
	slices.SortStableFunc(ranked, func(a, b RankedEntry) int {
		if c := cmp.Compare(a.Record.Score(), b.Record.Score()); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.Latency, b.Record.Latency)
	})
	return ranked
}

// SortEntries returns entries ordered best first. The input is not modified.
func SortEntries(entries []*EvaluationEntry) []*EvaluationEntry {
	ranked := Rank(entries)
	out := make([]*EvaluationEntry, len(ranked))
	for i, r := range ranked {
		out[i] = r.Entry
	}
	return out
}

// SelectPrimary returns the best scored entry, or nil for an empty pool.
func SelectPrimary(entries []*EvaluationEntry) *EvaluationEntry {
	if len(entries) == 0 {
		return nil
	}
	return Rank(entries)[0].Entry
}
