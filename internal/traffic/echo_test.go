package traffic

import (
	"testing"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/engine"
	"github.com/huyhayho2110/netsim/internal/fabric"
	"github.com/huyhayho2110/netsim/internal/model"
	"github.com/huyhayho2110/netsim/internal/topology"
)

func testParams() Params {
	return Params{
		Port:       443,
		PacketSize: 512,
		Interval:   0.005,
		MaxPackets: 3,
		Start:      1.0,
		Stop:       25.0,
	}
}

// flowCounter tallies probe callbacks per flow, ignoring the routing
// control plane so assertions see only workload traffic.
type flowCounter struct {
	sent map[model.FlowKey]int
	recv map[model.FlowKey]int
}

func newFlowCounter() *flowCounter {
	return &flowCounter{sent: map[model.FlowKey]int{}, recv: map[model.FlowKey]int{}}
}

func (c *flowCounter) PacketSent(ts float64, key model.FlowKey, bytes int) {
	if key.DstPort == 698 {
		return
	}
	c.sent[key]++
}

func (c *flowCounter) PacketReceived(ts float64, key model.FlowKey, bytes int, sentAt float64) {
	if key.DstPort == 698 {
		return
	}
	c.recv[key]++
}

func setupRing(t *testing.T, n int, p Params) (*engine.EventManager, []model.FlowSpec, *flowCounter) {
	t.Helper()
	cfg := config.Default().Wireless
	cfg.FrameErrorProb = 0
	sched := engine.NewEventManager()
	fab, err := fabric.Attach(sched, topology.Build(n), cfg, 1)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	specs := InstallRing(sched, fab, p)
	counter := newFlowCounter()
	fab.Medium.SetProbe(counter)
	return sched, specs, counter
}

func dataKey(src, dst int, srcPort, dstPort uint16) model.FlowKey {
	return model.FlowKey{
		SrcIP:    fabric.AddrFor(src),
		DstIP:    fabric.AddrFor(dst),
		SrcPort:  srcPort,
		DstPort:  dstPort,
		Protocol: model.ProtocolUDP,
	}
}

func TestInstallRingSpecs(t *testing.T) {
	_, specs, _ := setupRing(t, 5, testParams())
	if len(specs) != 5 {
		t.Fatalf("Expected 5 flow specs, got %d", len(specs))
	}
	for i, s := range specs {
		if s.SrcNode != i {
			t.Errorf("Spec %d: expected source node %d, got %d", i, i, s.SrcNode)
		}
		if want := (i + 1) % 5; s.DstNode != want {
			t.Errorf("Spec %d: expected destination node %d, got %d", i, want, s.DstNode)
		}
		if s.SrcAddr != fabric.AddrFor(i) || s.DstAddr != fabric.AddrFor((i+1)%5) {
			t.Errorf("Spec %d: bad addresses %v -> %v", i, s.SrcAddr, s.DstAddr)
		}
		if s.SrcPort != clientPort || s.DstPort != 443 {
			t.Errorf("Spec %d: bad ports %d -> %d", i, s.SrcPort, s.DstPort)
		}
	}
	// The last node's client wraps around to node 0.
	if specs[4].DstNode != 0 {
		t.Errorf("Expected the ring to wrap, got destination %d", specs[4].DstNode)
	}
}

func TestEchoRoundTrip(t *testing.T) {
	p := testParams()
	sched, _, counter := setupRing(t, 2, p)
	sched.Run(p.Stop)

	request := dataKey(0, 1, clientPort, p.Port)
	if got := counter.sent[request]; got != p.MaxPackets {
		t.Errorf("Client 0: expected %d sends, got %d", p.MaxPackets, got)
	}
	if got := counter.recv[request]; got != p.MaxPackets {
		t.Errorf("Responder: expected %d deliveries, got %d", p.MaxPackets, got)
	}

	reply := dataKey(1, 0, p.Port, clientPort)
	if got := counter.sent[reply]; got != p.MaxPackets {
		t.Errorf("Responder: expected %d echoes, got %d", p.MaxPackets, got)
	}
	if got := counter.recv[reply]; got != p.MaxPackets {
		t.Errorf("Client 0: expected %d echoed deliveries, got %d", p.MaxPackets, got)
	}
}

func TestUnansweredFlowStillDelivers(t *testing.T) {
	p := testParams()
	sched, _, counter := setupRing(t, 2, p)
	sched.Run(p.Stop)

	// Node 1's client targets node 0, where nothing listens on the
	// service port. Delivery is counted at the network layer all the
	// same, and no echo comes back.
	unanswered := dataKey(1, 0, clientPort, p.Port)
	if got := counter.recv[unanswered]; got != p.MaxPackets {
		t.Errorf("Expected %d deliveries on the unanswered flow, got %d", p.MaxPackets, got)
	}
	ghost := dataKey(0, 1, p.Port, clientPort)
	if got := counter.sent[ghost]; got != 0 {
		t.Errorf("Expected no echo from an unbound port, got %d", got)
	}
}

func TestMaxPacketsZeroInstallsNothing(t *testing.T) {
	p := testParams()
	p.MaxPackets = 0
	sched, specs, counter := setupRing(t, 3, p)
	sched.Run(p.Stop)

	if len(specs) != 3 {
		t.Fatalf("Expected specs for every client even when idle, got %d", len(specs))
	}
	if len(counter.sent) != 0 {
		t.Errorf("Expected no workload traffic, saw %d flows", len(counter.sent))
	}
}

func TestSendAtStopIsSuppressed(t *testing.T) {
	p := testParams()
	p.Interval = 24.0
	p.MaxPackets = 10
	sched, _, counter := setupRing(t, 2, p)
	sched.Run(30.0)

	// First send fires at 1.0; the next lands exactly on the stop
	// time and must not go out.
	request := dataKey(0, 1, clientPort, p.Port)
	if got := counter.sent[request]; got != 1 {
		t.Errorf("Expected exactly 1 send before the window closed, got %d", got)
	}
}

func TestRingOnThreeNodes(t *testing.T) {
	p := testParams()
	sched, _, counter := setupRing(t, 3, p)
	sched.Run(p.Stop)

	for i := 0; i < 3; i++ {
		key := dataKey(i, (i+1)%3, clientPort, p.Port)
		if got := counter.sent[key]; got != p.MaxPackets {
			t.Errorf("Client %d: expected %d sends, got %d", i, p.MaxPackets, got)
		}
		if got := counter.recv[key]; got != p.MaxPackets {
			t.Errorf("Flow %d->%d: expected %d deliveries, got %d", i, (i+1)%3, p.MaxPackets, got)
		}
	}
	// Only node 2 answers, echoing node 1's requests.
	reply := dataKey(2, 1, p.Port, clientPort)
	if got := counter.sent[reply]; got != p.MaxPackets {
		t.Errorf("Expected %d echoes from the responder, got %d", p.MaxPackets, got)
	}
}
