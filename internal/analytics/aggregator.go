package analytics

import (
	"sort"
	"sync"
	"time"
)

// latencyWindow bounds the number of latency samples kept for percentiles.
const latencyWindow = 10000

// UsageStats is a snapshot of in-process usage counters.
type UsageStats struct {
	TotalCommands      int64            `json:"total_commands"`
	Errors             int64            `json:"errors"`
	Downloads          int64            `json:"downloads"`
	SummarizerFallback int64            `json:"summarizer_fallbacks"`
	ByCommand          []CommandCount   `json:"by_command"`
	ByStrategy         map[string]int64 `json:"by_strategy"`
	AvgLatencyMs       float64          `json:"avg_latency_ms"`
	P50LatencyMs       int64            `json:"p50_latency_ms"`
	P95LatencyMs       int64            `json:"p95_latency_ms"`
	P99LatencyMs       int64            `json:"p99_latency_ms"`
	CommandsPerMinute  float64          `json:"commands_per_minute"`
}

type CommandCount struct {
	Command string `json:"command"`
	Count   int64  `json:"count"`
}

// Aggregator keeps running usage totals for the stats endpoint.
type Aggregator struct {
	mu         sync.RWMutex
	total      int64
	errors     int64
	downloads  int64
	fallbacks  int64
	byCommand  map[string]int64
	byStrategy map[string]int64
	latencies  []int64
	next       int
	startTime  time.Time
	now        func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byCommand:  make(map[string]int64),
		byStrategy: make(map[string]int64),
		latencies:  make([]int64, 0, 256),
		startTime:  time.Now(),
		now:        time.Now,
	}
}

// Track records an event.
func (a *Aggregator) Track(event UsageEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.byCommand[event.Command]++
	if event.Strategy != "" {
		a.byStrategy[event.Strategy]++
	}
	if event.Outcome == OutcomeError {
		a.errors++
	}
	if event.Download {
		a.downloads++
	}
	if event.FellBack {
		a.fallbacks++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
}

func (a *Aggregator) Stats() UsageStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := UsageStats{
		TotalCommands:      a.total,
		Errors:             a.errors,
		Downloads:          a.downloads,
		SummarizerFallback: a.fallbacks,
		ByCommand:          topN(a.byCommand, len(a.byCommand)),
		ByStrategy:         make(map[string]int64, len(a.byStrategy)),
	}
	for k, v := range a.byStrategy {
		stats.ByStrategy[k] = v
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	elapsed := a.now().Sub(a.startTime).Minutes()
	if elapsed > 0 {
		stats.CommandsPerMinute = float64(a.total) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []CommandCount {
	result := make([]CommandCount, 0, len(counts))
	for cmd, count := range counts {
		result = append(result, CommandCount{Command: cmd, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Command < result[j].Command
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
