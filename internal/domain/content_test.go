package domain

import "testing"

func TestBatchStatsAdd(t *testing.T) {
	t.Parallel()

	stats := BatchStats{Processed: 2, Skipped: 1}
	stats.Add(BatchStats{Processed: 3, Errored: 4})

	want := BatchStats{Processed: 5, Skipped: 1, Errored: 4}
	if stats != want {
		t.Fatalf("got %+v, want %+v", stats, want)
	}
}
