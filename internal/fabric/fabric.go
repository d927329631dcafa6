// Package fabric assembles the network of one run: it puts every
// placed node on a fresh shared medium, assigns addresses, computes
// routing state, schedules the control-plane advertisements, and wires
// the per-interface frame taps.
package fabric

import (
	"fmt"
	"net/netip"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/engine/wireless"
	"github.com/huyhayho2110/netsim/internal/model"
)

var subnet = netip.MustParsePrefix("10.1.1.0/24")

// Fabric is the shared medium plus the attached devices of one run.
// Exactly one fabric exists per run and nothing of it is reused across
// runs.
type Fabric struct {
	Medium  *wireless.Medium
	Devices []*wireless.Device
	Subnet  netip.Prefix
}

// Attach wires a topology onto a fresh medium. Addresses are assigned
// from the subnet in node order, node i getting host i+1. Attaching an
// empty topology is a valid no-op fabric. The taps are installed before
// any traffic can flow, so captures see the run from the first frame.
func Attach(sched model.Scheduler, topo model.Topology, cfg config.WirelessConfig, seed int64, taps ...model.FrameTap) (*Fabric, error) {
	if len(topo.Nodes) > 254 {
		return nil, fmt.Errorf("subnet %s cannot address %d nodes", subnet, len(topo.Nodes))
	}

	m := wireless.NewMedium(sched, cfg, seed)
	for _, t := range taps {
		m.AddTap(t)
	}

	devices := make([]*wireless.Device, 0, len(topo.Nodes))
	for _, n := range topo.Nodes {
		n.Addr = AddrFor(n.ID)
		devices = append(devices, m.NewDevice(n))
	}

	m.ComputeRoutes()
	m.ScheduleAdvertisements()

	return &Fabric{Medium: m, Devices: devices, Subnet: subnet}, nil
}

// AddrFor returns the address node i receives when the fabric is
// attached.
func AddrFor(i int) netip.Addr {
	base := subnet.Addr().As4()
	base[3] = byte(i + 1)
	return netip.AddrFrom4(base)
}
