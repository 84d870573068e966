package gateway

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func entriesWithRecords(recs ...PerformanceRecord) []*EvaluationEntry {
	out := make([]*EvaluationEntry, len(recs))
	for i, r := range recs {
		out[i] = newEvaluationEntry(i, newFake("x"))
		out[i].record = r
	}
	return out
}

func TestSortEntriesInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		recs := make([]PerformanceRecord, 1+rng.Intn(8))
		for i := range recs {
			recs[i] = PerformanceRecord{
				Latency:     time.Duration(rng.Intn(1000)) * time.Millisecond,
				FailureRate: uint64(rng.Intn(4)),
			}
		}
		sorted := SortEntries(entriesWithRecords(recs...))
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				a, b := sorted[i].Record(), sorted[j].Record()
				require.False(t, b.Score() < a.Score(),
					"round %d: %v placed after %v", round, b, a)
			}
		}
	}
}

func TestSortEntriesTieBreaksOnLatency(t *testing.T) {
	entries := entriesWithRecords(
		PerformanceRecord{Latency: 500 * time.Millisecond},
		PerformanceRecord{Latency: UnmeasuredLatency},
		PerformanceRecord{Latency: time.Millisecond},
	)
	sorted := SortEntries(entries)
	require.Equal(t, []int{2, 0, 1}, []int{sorted[0].Index(), sorted[1].Index(), sorted[2].Index()})
}

func TestSortEntriesIsStable(t *testing.T) {
	entries := entriesWithRecords(
		PerformanceRecord{Latency: UnmeasuredLatency},
		PerformanceRecord{Latency: UnmeasuredLatency},
		PerformanceRecord{Latency: UnmeasuredLatency},
	)
	sorted := SortEntries(entries)
	for i, e := range sorted {
		require.Equal(t, i, e.Index())
	}
	// input left untouched
	require.Equal(t, 0, entries[0].Index())
}

func TestSelectPrimary(t *testing.T) {
	require.Nil(t, SelectPrimary(nil))

	entries := entriesWithRecords(
		PerformanceRecord{Latency: 10 * time.Millisecond, FailureRate: 3},
		PerformanceRecord{Latency: 80 * time.Millisecond},
	)
	require.Equal(t, 1, SelectPrimary(entries).Index())
}
