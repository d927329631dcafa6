// Package flowmon tracks per-flow counters while a run executes and
// turns them into snapshots, reports and persisted artifacts.
package flowmon

import (
	"sync"

	"github.com/huyhayho2110/netsim/internal/engine/wireless"
	"github.com/huyhayho2110/netsim/internal/fabric"
	"github.com/huyhayho2110/netsim/internal/model"
)

// Flow ids are handed out in first-packet order. All control-plane
// traffic is folded into a single flow that takes the first id, so
// workload flows start at DataFlowBase.
const (
	ControlFlowID = 1
	DataFlowBase  = 2
)

// Monitor is the packet probe of a single run. It must be attached
// before traffic is installed so that id assignment sees every packet.
type Monitor struct {
	mu      sync.Mutex
	nextID  int
	control *model.FlowStats
	flows   map[model.FlowKey]*model.FlowStats
	order   []*model.FlowStats
}

func NewMonitor() *Monitor {
	return &Monitor{
		nextID: DataFlowBase,
		flows:  make(map[model.FlowKey]*model.FlowStats),
	}
}

// Attach registers the monitor as the fabric's packet probe.
func (m *Monitor) Attach(fab *fabric.Fabric) {
	fab.Medium.SetProbe(m)
}

// stats returns the record for a key, creating it on first sight.
// Callers hold mu.
func (m *Monitor) stats(key model.FlowKey) *model.FlowStats {
	if key.DstPort == wireless.ControlPort {
		if m.control == nil {
			m.control = &model.FlowStats{FlowID: ControlFlowID, Key: key}
		}
		return m.control
	}
	st, ok := m.flows[key]
	if !ok {
		st = &model.FlowStats{FlowID: m.nextID, Key: key}
		m.nextID++
		m.flows[key] = st
		m.order = append(m.order, st)
	}
	return st
}

func (m *Monitor) PacketSent(ts float64, key model.FlowKey, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats(key)
	if st.TxPackets == 0 {
		st.FirstTx = ts
	}
	st.LastTx = ts
	st.TxPackets++
	st.TxBytes += uint64(bytes)
}

func (m *Monitor) PacketReceived(ts float64, key model.FlowKey, bytes int, sentAt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stats(key)
	if st.RxPackets == 0 {
		st.FirstRx = ts
	}
	st.LastRx = ts
	st.RxPackets++
	st.RxBytes += uint64(bytes)
	st.DelaySum += ts - sentAt
}

// Collect finalizes the counters into a snapshot ordered by flow id.
// Packets that never reached their destination before the run stopped
// are counted as lost.
func (m *Monitor) Collect(runID string, nodeCount int, duration float64) *model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := &model.Snapshot{
		RunID:     runID,
		NodeCount: nodeCount,
		Duration:  duration,
		Flows:     make([]model.FlowStats, 0, len(m.order)+1),
	}
	if m.control != nil {
		m.control.LostPackets = m.control.TxPackets - m.control.RxPackets
		snap.Flows = append(snap.Flows, *m.control)
	}
	for _, st := range m.order {
		st.LostPackets = st.TxPackets - st.RxPackets
		snap.Flows = append(snap.Flows, *st)
	}
	return snap
}
