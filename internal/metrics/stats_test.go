package metrics

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestRenderStatsSnapshotPercentiles(t *testing.T) {
	stats := NewRenderStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record("blocks", time.Duration(ms)*time.Millisecond, 0)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %f", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %f", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if !approx(snap.P95Ms, 480) {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if !approx(snap.P99Ms, 496) {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestRenderStatsCountsEncodingsAndUnmatched(t *testing.T) {
	stats := NewRenderStats(time.Hour)
	stats.Record("blocks", time.Millisecond, 0)
	stats.Record("legacy", time.Millisecond, 2)
	stats.Record("legacy", time.Millisecond, 1)

	snap := stats.Snapshot()
	if snap.ByEncoding["blocks"] != 1 || snap.ByEncoding["legacy"] != 2 {
		t.Fatalf("unexpected encoding counts %v", snap.ByEncoding)
	}
	if snap.UnmatchedTotal != 3 {
		t.Fatalf("expected 3 unmatched headings, got %d", snap.UnmatchedTotal)
	}
}

func TestRenderStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewRenderStats(time.Minute)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	stats.now = func() time.Time { return now }

	stats.Record("blocks", 100*time.Millisecond, 0)
	now = base.Add(2 * time.Minute)

	snap := stats.Snapshot()
	if snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record("legacy", 200*time.Millisecond, 0)
	snap = stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestRenderStatsClampsNegativeDuration(t *testing.T) {
	stats := NewRenderStats(time.Hour)
	stats.Record("blocks", -10*time.Millisecond, -1)
	snap := stats.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.UnmatchedTotal != 0 {
		t.Fatalf("expected clamped values, got %+v", snap)
	}
}
