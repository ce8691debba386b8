package main

import (
	"sync/atomic"
	"time"
)

// latencyWindow keeps the most recent fetch latencies.
type latencyWindow struct {
	samples []time.Duration
	next    int
	filled  int
}

func newLatencyWindow(n int) *latencyWindow {
	return &latencyWindow{samples: make([]time.Duration, max(n, 1))}
}

func (w *latencyWindow) add(d time.Duration) {
	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	w.filled = min(w.filled+1, len(w.samples))
}

type latencyStats struct {
	last, avg, max time.Duration
	n              int
}

func (w *latencyWindow) stats() latencyStats {
	if w.filled == 0 {
		return latencyStats{}
	}
	s := latencyStats{n: w.filled}
	var sum time.Duration
	for _, d := range w.samples[:w.filled] {
		sum += d
		s.max = max(s.max, d)
	}
	s.avg = sum / time.Duration(w.filled)
	s.last = w.samples[(w.next-1+len(w.samples))%len(w.samples)]
	return s
}

// fetchMetrics counts what the session asked of the provider and the chart.
type fetchMetrics struct {
	enabled atomic.Bool

	issued  atomic.Uint64
	ready   atomic.Uint64
	failed  atomic.Uint64
	redraws atomic.Uint64

	latency *latencyWindow
}

func newFetchMetrics(window int) *fetchMetrics {
	return &fetchMetrics{latency: newLatencyWindow(window)}
}

func (m *fetchMetrics) setEnabled(v bool) { m.enabled.Store(v) }

func (m *fetchMetrics) observeIssued(n int) {
	if !m.enabled.Load() {
		return
	}
	m.issued.Add(uint64(n))
}

func (m *fetchMetrics) observeSettled(elapsed time.Duration, err error) {
	if !m.enabled.Load() {
		return
	}
	if err != nil {
		m.failed.Add(1)
	} else {
		m.ready.Add(1)
	}
	m.latency.add(elapsed)
}

func (m *fetchMetrics) observeRedraws(total int) {
	m.redraws.Store(uint64(total))
}

type snapshot struct {
	issued, ready, failed, redraws uint64
	inFlight                       uint64
	latency                        latencyStats
}

func (m *fetchMetrics) snapshot() snapshot {
	if !m.enabled.Load() {
		return snapshot{}
	}
	s := snapshot{
		issued:  m.issued.Load(),
		ready:   m.ready.Load(),
		failed:  m.failed.Load(),
		redraws: m.redraws.Load(),
		latency: m.latency.stats(),
	}
	if settled := s.ready + s.failed; s.issued > settled {
		s.inFlight = s.issued - settled
	}
	return s
}
