package infra

import (
	"sync/atomic"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	wsReconnects  atomic.Uint64
	wsFramesDrop  atomic.Uint64
	pollsOK       atomic.Uint64
	pollsFailed   atomic.Uint64
	ordersPlaced  atomic.Uint64
	ordersFailed  atomic.Uint64

	// Gauges
	wsConnected atomic.Int32 // 1 = connected, 0 = not
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordReconnect records a WebSocket reconnect attempt.
func (m *Metrics) RecordReconnect() {
	m.wsReconnects.Add(1)
}

// RecordFrameDrop records an inbound frame that could not be dispatched.
func (m *Metrics) RecordFrameDrop() {
	m.wsFramesDrop.Add(1)
}

// RecordPoll records the outcome of one REST poll tick.
func (m *Metrics) RecordPoll(ok bool) {
	if ok {
		m.pollsOK.Add(1)
	} else {
		m.pollsFailed.Add(1)
	}
}

// RecordOrder records a submitted order outcome.
func (m *Metrics) RecordOrder(ok bool) {
	if ok {
		m.ordersPlaced.Add(1)
	} else {
		m.ordersFailed.Add(1)
	}
}

// SetConnected sets the WebSocket connection gauge.
func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.wsConnected.Store(1)
	} else {
		m.wsConnected.Store(0)
	}
}

// Snapshot returns current counter values for logging or inspection.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"ws_reconnects":  m.wsReconnects.Load(),
		"ws_frames_drop": m.wsFramesDrop.Load(),
		"polls_ok":       m.pollsOK.Load(),
		"polls_failed":   m.pollsFailed.Load(),
		"orders_placed":  m.ordersPlaced.Load(),
		"orders_failed":  m.ordersFailed.Load(),
		"ws_connected":   uint64(m.wsConnected.Load()),
	}
}
