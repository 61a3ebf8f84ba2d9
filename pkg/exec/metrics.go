package exec

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// MetricsSnapshot is a point-in-time copy of the coordinator's counters.
// Time-to-fill is measured from Submitted to Filled only.
type MetricsSnapshot struct {
	Submitted int64
	Filled    int64
	Rejected  int64
	Failed    int64
	Cancelled int64
	Expired   int64

	AvgTimeToFill time.Duration
	P95TimeToFill time.Duration
	SuccessRate   float64
}

type metrics struct {
	mu sync.Mutex

	submitted int64
	filled    int64
	rejected  int64
	failed    int64
	cancelled int64
	expired   int64

	fillSeconds []float64
}

func (m *metrics) addSubmitted() {
	m.mu.Lock()
	m.submitted++
	m.mu.Unlock()
}

func (m *metrics) addFilled(timeToFill time.Duration) {
	m.mu.Lock()
	m.filled++
	if timeToFill > 0 {
		m.fillSeconds = append(m.fillSeconds, timeToFill.Seconds())
	}
	m.mu.Unlock()
}

func (m *metrics) addRejected() {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func (m *metrics) addFailed() {
	m.mu.Lock()
	m.failed++
	m.mu.Unlock()
}

func (m *metrics) addCancelled() {
	m.mu.Lock()
	m.cancelled++
	m.mu.Unlock()
}

func (m *metrics) addExpired() {
	m.mu.Lock()
	m.expired++
	m.mu.Unlock()
}

func (m *metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		Submitted: m.submitted,
		Filled:    m.filled,
		Rejected:  m.rejected,
		Failed:    m.failed,
		Cancelled: m.cancelled,
		Expired:   m.expired,
	}

	if len(m.fillSeconds) > 0 {
		if mean, err := stats.Mean(m.fillSeconds); err == nil {
			snap.AvgTimeToFill = time.Duration(mean * float64(time.Second))
		}
		if p95, err := stats.Percentile(m.fillSeconds, 95); err == nil {
			snap.P95TimeToFill = time.Duration(p95 * float64(time.Second))
		}
	}

	if denom := m.submitted + m.rejected + m.failed; denom > 0 {
		snap.SuccessRate = float64(m.filled) / float64(denom)
	}
	return snap
}
