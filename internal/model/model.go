package model

import (
	"fmt"
	"net/netip"
	"time"
)

// Node is one simulated station: a zero-based index, a fixed grid
// position, and the address assigned when the fabric was attached.
type Node struct {
	ID   int
	X, Y float64
	Addr netip.Addr
}

// Topology is the set of placed nodes plus the grid parameters that
// produced the placement. Positions are purely geometric; nodes never
// move during a run.
type Topology struct {
	Nodes    []Node
	RowWidth int
	StepX    float64
	StepY    float64
}

// FlowKey identifies a tracked traffic stream by its 5-tuple.
type FlowKey struct {
	SrcIP    netip.Addr
	DstIP    netip.Addr
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

func (k FlowKey) String() string {
	return fmt.Sprintf("%s:%d->%s:%d/%d", k.SrcIP, k.SrcPort, k.DstIP, k.DstPort, k.Protocol)
}

// FlowStats holds the counters accumulated for one flow over one run.
// Times are in simulated seconds. LostPackets is finalized when the
// snapshot is taken: transmitted minus received.
type FlowStats struct {
	FlowID      int
	Key         FlowKey
	TxBytes     uint64
	RxBytes     uint64
	TxPackets   uint64
	RxPackets   uint64
	LostPackets uint64
	DelaySum    float64
	FirstTx     float64
	LastTx      float64
	FirstRx     float64
	LastRx      float64
}

// Snapshot is the full flow table of one finished run, ordered by
// ascending flow id. It includes control-plane flows and any data flows
// outside the reported range.
type Snapshot struct {
	RunID     string
	NodeCount int
	Duration  float64
	Flows     []FlowStats
}

// ByID returns the stats record for a flow id. A flow that was tracked
// but never carried a packet, or an id never assigned at all, yields a
// zero-valued record rather than an error.
func (s *Snapshot) ByID(id int) FlowStats {
	for i := range s.Flows {
		if s.Flows[i].FlowID == id {
			return s.Flows[i]
		}
	}
	return FlowStats{FlowID: id}
}

// FlowSpec describes one client's request stream before the run starts.
type FlowSpec struct {
	SrcNode    int
	DstNode    int
	SrcAddr    netip.Addr
	DstAddr    netip.Addr
	SrcPort    uint16
	DstPort    uint16
	PacketSize int
	Interval   float64
	MaxPackets int
	Start      float64
	Stop       float64
}

// FlowReport is the derived, read-only view over one reported flow.
// The Has* fields distinguish "no traffic observed" from a numeric
// zero; LossRatio is NaN when the flow transmitted nothing.
type FlowReport struct {
	FlowID       int
	TxBitrate    float64
	HasTxBitrate bool
	RxBitrate    float64
	HasRxBitrate bool
	TxPackets    uint64
	RxPackets    uint64
	MeanDelay    time.Duration
	HasMeanDelay bool
	LossRatio    float64
}

// Report covers the reported flow id window of one run.
type Report struct {
	NodeCount int
	Flows     []FlowReport
}
