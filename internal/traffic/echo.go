// Package traffic installs echo workloads on an attached fabric.
package traffic

import (
	"net/netip"

	"github.com/huyhayho2110/netsim/internal/engine/wireless"
	"github.com/huyhayho2110/netsim/internal/fabric"
	"github.com/huyhayho2110/netsim/internal/model"
)

// clientPort is the first ephemeral port a node hands out. Every node
// runs exactly one client, so they all bind the same local port and
// flows stay distinct through the source address.
const clientPort = 49153

// Params describes one ring workload. Interval, Start and Stop are in
// simulated seconds.
type Params struct {
	Port       uint16
	PacketSize int
	Interval   float64
	MaxPackets int
	Start      float64
	Stop       float64
}

// InstallRing places an echo client on every node, each targeting its
// successor modulo the node count, and a single echo responder on the
// last node. It returns one FlowSpec per client in node order.
func InstallRing(sched model.Scheduler, fab *fabric.Fabric, p Params) []model.FlowSpec {
	n := len(fab.Devices)
	if n == 0 {
		return nil
	}

	installResponder(sched, fab.Devices[n-1], p)

	specs := make([]model.FlowSpec, 0, n)
	for i, d := range fab.Devices {
		dst := fab.Devices[(i+1)%n]
		installClient(sched, d, dst.Addr(), p)
		specs = append(specs, model.FlowSpec{
			SrcNode:    i,
			DstNode:    (i + 1) % n,
			SrcAddr:    d.Addr(),
			DstAddr:    dst.Addr(),
			SrcPort:    clientPort,
			DstPort:    p.Port,
			PacketSize: p.PacketSize,
			Interval:   p.Interval,
			MaxPackets: p.MaxPackets,
			Start:      p.Start,
			Stop:       p.Stop,
		})
	}
	return specs
}

// installClient schedules up to MaxPackets sends, the first at Start
// and the rest spaced by Interval. A send that would land at or after
// Stop is suppressed.
func installClient(sched model.Scheduler, d *wireless.Device, dst netip.Addr, p Params) {
	if p.MaxPackets <= 0 {
		return
	}
	sent := 0
	var send func()
	send = func() {
		if sched.Now() >= p.Stop {
			return
		}
		d.SendTo(dst, clientPort, p.Port, p.PacketSize)
		sent++
		if sent < p.MaxPackets {
			sched.Schedule(p.Interval, send)
		}
	}
	sched.ScheduleAt(p.Start, send)
}

// installResponder binds the service port on the given device and
// echoes each datagram back to its requester while the workload
// window is open.
func installResponder(sched model.Scheduler, d *wireless.Device, p Params) {
	d.Bind(p.Port, func(ts float64, src netip.Addr, srcPort uint16, payload int) {
		if ts < p.Start || ts >= p.Stop {
			return
		}
		d.SendTo(src, p.Port, srcPort, payload)
	})
}
