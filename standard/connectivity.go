// Package standard provides the monitor's built-in diagnostics components.
package standard

import (
	"sort"
	"sync"
	"time"
)

// window bounds how long fetch results are kept.
const window = time.Hour

// FetchCall represents a single manifest fetch.
type FetchCall struct {
	Timestamp time.Time
	Success   bool
	Latency   time.Duration
	Error     string
}

// ConnectivityTracker records manifest fetch outcomes per endpoint.
type ConnectivityTracker struct {
	mu    sync.Mutex
	calls map[string][]FetchCall // url -> calls within window
}

// EndpointStats summarizes fetches to one endpoint over the last hour.
type EndpointStats struct {
	URL          string        `json:"url"`
	Status       string        `json:"status"` // healthy, degraded, unhealthy
	LastCall     time.Time     `json:"last_call"`
	TotalCalls   int           `json:"total_calls_1h"`
	SuccessRate  float64       `json:"success_rate_1h"`
	P50          time.Duration `json:"latency_p50"`
	P95          time.Duration `json:"latency_p95"`
	RecentErrors []string      `json:"recent_errors"`
}

// NewConnectivityTracker creates a new connectivity tracker.
func NewConnectivityTracker() *ConnectivityTracker {
	return &ConnectivityTracker{
		calls: make(map[string][]FetchCall),
	}
}

// TrackSuccess records a successful fetch.
func (t *ConnectivityTracker) TrackSuccess(url string, latency time.Duration) {
	t.track(url, FetchCall{Success: true, Latency: latency})
}

// TrackFailure records a failed fetch.
func (t *ConnectivityTracker) TrackFailure(url string, latency time.Duration, errorMsg string) {
	t.track(url, FetchCall{Latency: latency, Error: errorMsg})
}

func (t *ConnectivityTracker) track(url string, call FetchCall) {
	call.Timestamp = time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	calls := append(t.calls[url], call)
	t.calls[url] = prune(calls, call.Timestamp.Add(-window))
}

// prune drops calls older than cutoff; calls are in timestamp order.
func prune(calls []FetchCall, cutoff time.Time) []FetchCall {
	for i, call := range calls {
		if call.Timestamp.After(cutoff) {
			return calls[i:]
		}
	}
	return calls[:0]
}

// Snapshot returns stats for every endpoint with calls in the window, sorted by URL.
func (t *ConnectivityTracker) Snapshot() []EndpointStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]EndpointStats, 0, len(t.calls))
	for url, calls := range t.calls {
		if len(calls) == 0 {
			continue
		}

		stats := EndpointStats{URL: url, TotalCalls: len(calls), RecentErrors: []string{}}
		latencies := make([]time.Duration, 0, len(calls))
		successes := 0
		for _, call := range calls {
			if call.Success {
				successes++
			} else if len(stats.RecentErrors) < 5 {
				stats.RecentErrors = append(stats.RecentErrors, call.Error)
			}
			latencies = append(latencies, call.Latency)
			if call.Timestamp.After(stats.LastCall) {
				stats.LastCall = call.Timestamp
			}
		}

		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		stats.P50 = percentile(latencies, 0.50)
		stats.P95 = percentile(latencies, 0.95)
		stats.SuccessRate = float64(successes) / float64(len(calls))

		switch {
		case stats.SuccessRate < 0.9:
			stats.Status = "unhealthy"
		case stats.SuccessRate < 0.95:
			stats.Status = "degraded"
		default:
			stats.Status = "healthy"
		}

		out = append(out, stats)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// percentile calculates the percentile of a sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
