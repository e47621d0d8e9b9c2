package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects and aggregates per-process counters for chat turns.
type Metrics struct {
	mu sync.Mutex

	// Counters
	turnTotal    atomic.Int64
	turnFailed   atomic.Int64
	streamEvents atomic.Int64

	// Per-tool metrics
	toolMetrics map[string]*ToolMetrics

	// Recent turn durations (bounded ring)
	durations    []time.Duration
	maxDurations int
}

// ToolMetrics represents metrics for a single dispatched tool.
type ToolMetrics struct {
	callCount     atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		toolMetrics:  make(map[string]*ToolMetrics),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordTurn records a completed chat turn.
func (m *Metrics) RecordTurn(duration time.Duration, failed bool) {
	m.turnTotal.Add(1)
	if failed {
		m.turnFailed.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
}

// RecordToolCall records a tool dispatch.
func (m *Metrics) RecordToolCall(toolName string, duration time.Duration, err error) {
	tm := m.getToolMetrics(toolName)
	tm.callCount.Add(1)
	tm.totalDuration.Add(duration.Milliseconds())
	if err != nil {
		tm.errorCount.Add(1)
	}
}

// RecordStreamEvent records an emitted stream event.
func (m *Metrics) RecordStreamEvent() {
	m.streamEvents.Add(1)
}

// Snapshot is a point-in-time view of the collected metrics.
type Snapshot struct {
	TurnTotal     int64                   `json:"turn_total"`
	TurnFailed    int64                   `json:"turn_failed"`
	StreamEvents  int64                   `json:"stream_events"`
	AvgDurationMs int64                   `json:"avg_duration_ms"`
	Tools         map[string]ToolSnapshot `json:"tools"`
}

// ToolSnapshot is a point-in-time view of a single tool's metrics.
type ToolSnapshot struct {
	Calls         int64 `json:"calls"`
	Errors        int64 `json:"errors"`
	AvgDurationMs int64 `json:"avg_duration_ms"`
}

// Snapshot returns the current metric values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum time.Duration
	for _, d := range m.durations {
		sum += d
	}
	var avg int64
	if len(m.durations) > 0 {
		avg = (sum / time.Duration(len(m.durations))).Milliseconds()
	}

	tools := make(map[string]ToolSnapshot, len(m.toolMetrics))
	for name, tm := range m.toolMetrics {
		calls := tm.callCount.Load()
		var toolAvg int64
		if calls > 0 {
			toolAvg = tm.totalDuration.Load() / calls
		}
		tools[name] = ToolSnapshot{
			Calls:         calls,
			Errors:        tm.errorCount.Load(),
			AvgDurationMs: toolAvg,
		}
	}

	return Snapshot{
		TurnTotal:     m.turnTotal.Load(),
		TurnFailed:    m.turnFailed.Load(),
		StreamEvents:  m.streamEvents.Load(),
		AvgDurationMs: avg,
		Tools:         tools,
	}
}

func (m *Metrics) getToolMetrics(toolName string) *ToolMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.toolMetrics[toolName]
	if !ok {
		tm = &ToolMetrics{}
		m.toolMetrics[toolName] = tm
	}
	return tm
}
