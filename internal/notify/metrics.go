package notify

import (
	"sync"
	"time"
)

type DeliveryMetrics struct {
	Sent         int
	Failed       int
	LastDuration time.Duration
	LastError    string
	LastAttempt  time.Time
}

// Metrics aggregates delivery outcomes per email kind.
type Metrics struct {
	metrics map[Kind]*DeliveryMetrics
	mu      sync.RWMutex
}

func NewMetrics() *Metrics {
	return &Metrics{
		metrics: make(map[Kind]*DeliveryMetrics),
	}
}

func (m *Metrics) Record(kind Kind, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, exists := m.metrics[kind]
	if !exists {
		d = &DeliveryMetrics{}
		m.metrics[kind] = d
	}

	d.LastAttempt = time.Now()
	d.LastDuration = duration
	if err != nil {
		d.Failed++
		d.LastError = err.Error()
		return
	}
	d.Sent++
	d.LastError = ""
}

// Snapshot returns a copy safe to read without holding the lock.
func (m *Metrics) Snapshot() map[Kind]DeliveryMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[Kind]DeliveryMetrics, len(m.metrics))
	for k, v := range m.metrics {
		out[k] = *v
	}
	return out
}
