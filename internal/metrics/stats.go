// Package metrics keeps rolling-window render statistics.
package metrics

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationUs int64
	encoding   string
	unmatched  int
}

// StatsSnapshot is a point-in-time aggregate of render samples.
type StatsSnapshot struct {
	Count          int            `json:"count"`
	MinMs          float64        `json:"min_ms"`
	MaxMs          float64        `json:"max_ms"`
	AvgMs          float64        `json:"avg_ms"`
	P50Ms          float64        `json:"p50_ms"`
	P95Ms          float64        `json:"p95_ms"`
	P99Ms          float64        `json:"p99_ms"`
	ByEncoding     map[string]int `json:"by_encoding"`
	UnmatchedTotal int            `json:"unmatched_headings"`
}

// RenderStats tracks recent render latencies within a rolling window.
type RenderStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewRenderStats(maxAge time.Duration) *RenderStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &RenderStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one render. unmatched is the number of outline entries that
// found no rendered heading.
func (s *RenderStats) Record(encoding string, d time.Duration, unmatched int) {
	us := d.Microseconds()
	if us < 0 {
		us = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationUs: us,
		encoding:   encoding,
		unmatched:  max(unmatched, 0),
	})
}

func (s *RenderStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.samples) == 0 {
		return StatsSnapshot{ByEncoding: map[string]int{}}
	}

	snap := StatsSnapshot{ByEncoding: make(map[string]int)}
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationUs)
		sum += sm.durationUs
		snap.ByEncoding[sm.encoding]++
		snap.UnmatchedTotal += sm.unmatched
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = toMs(float64(values[0]))
	snap.MaxMs = toMs(float64(values[len(values)-1]))
	snap.AvgMs = toMs(float64(sum) / float64(len(values)))
	snap.P50Ms = toMs(percentile(values, 50))
	snap.P95Ms = toMs(percentile(values, 95))
	snap.P99Ms = toMs(percentile(values, 99))
	return snap
}

func (s *RenderStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func toMs(us float64) float64 {
	return us / 1000
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
