// Package engine implements the virtual-time discrete-event loop that
// drives a run. All simulated activity is a closure scheduled on the
// manager; wall-clock time never enters the picture.
package engine

import "container/heap"

type event struct {
	at  float64
	seq uint64
	fn  func()
}

// eventHeap orders events by time, then by schedule order, so
// same-timestamp events fire first-in first-out.
type eventHeap []event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(event)) }

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	ev := old[n-1]
	*h = old[:n-1]
	return ev
}

// EventManager is a single-threaded virtual-time scheduler. It
// implements model.Scheduler. The clock only moves inside Run, and only
// forward.
type EventManager struct {
	now     float64
	seq     uint64
	events  eventHeap
	stopped bool
}

// NewEventManager creates an empty event manager with the clock at zero.
func NewEventManager() *EventManager {
	return &EventManager{}
}

// Now returns the current simulated time in seconds.
func (m *EventManager) Now() float64 {
	return m.now
}

// Schedule runs fn after delay seconds of simulated time.
func (m *EventManager) Schedule(delay float64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	m.ScheduleAt(m.now+delay, fn)
}

// ScheduleAt runs fn at the absolute simulated time t. Times in the
// past are clamped to the current instant.
func (m *EventManager) ScheduleAt(t float64, fn func()) {
	if t < m.now {
		t = m.now
	}
	m.seq++
	heap.Push(&m.events, event{at: t, seq: m.seq, fn: fn})
}

// Pending returns how many events are waiting to fire.
func (m *EventManager) Pending() int {
	return len(m.events)
}

// Stop makes the current Run return after the event in progress.
func (m *EventManager) Stop() {
	m.stopped = true
}

// Run executes events in timestamp order until the queue drains or the
// horizon is reached, whichever comes first. Events scheduled past the
// horizon are discarded: the horizon is a hard deadline, and anything
// still in flight when it passes simply never happens. On return the
// clock stands at the horizon.
func (m *EventManager) Run(until float64) {
	m.stopped = false
	for len(m.events) > 0 && !m.stopped {
		if m.events[0].at > until {
			break
		}
		ev := heap.Pop(&m.events).(event)
		m.now = ev.at
		ev.fn()
	}
	m.events = nil
	if until > m.now {
		m.now = until
	}
}
