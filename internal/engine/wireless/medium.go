// Package wireless models the shared ad-hoc medium a run's devices
// attach to: a single collision domain with idealized carrier sense,
// unit-disk connectivity over the grid positions, and hop-by-hop
// forwarding along precomputed shortest paths. It stands in for a real
// PHY/MAC stack; the point is believable contention, airtime, and loss,
// not standards fidelity.
package wireless

import (
	"math"
	"math/rand"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/model"
)

const (
	// ControlPort carries routing advertisements; traffic on it is
	// accounted separately from data flows.
	ControlPort = 698

	slotTime        = 9e-6
	contentionSlots = 16
	rtsCtsBytes     = 34
	maxHops         = 32
)

// Medium is the shared channel for one run. Exactly one frame is in
// the air at a time; contenders defer to the busy horizon plus a random
// backoff. All randomness is drawn from the run's seeded source, so a
// repeated run replays identically.
type Medium struct {
	sched     model.Scheduler
	cfg       config.WirelessConfig
	rng       *rand.Rand
	devices   []*Device
	taps      []model.FrameTap
	probe     model.PacketProbe
	busyUntil float64
	frameSeq  uint64
}

// NewMedium creates an empty medium on the given clock.
func NewMedium(sched model.Scheduler, cfg config.WirelessConfig, seed int64) *Medium {
	return &Medium{
		sched: sched,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// NewDevice attaches a device for the given node. Devices must be added
// in node-id order before routes are computed.
func (m *Medium) NewDevice(node model.Node) *Device {
	d := &Device{
		node:     node,
		medium:   m,
		handlers: make(map[uint16]PacketHandler),
	}
	m.devices = append(m.devices, d)
	return d
}

// Devices returns the attached devices in node-id order.
func (m *Medium) Devices() []*Device {
	return m.devices
}

// AddTap registers a frame tap. Taps see every transmitted and every
// received frame, forwarded hops included.
func (m *Medium) AddTap(t model.FrameTap) {
	m.taps = append(m.taps, t)
}

// SetProbe installs the end-to-end packet probe. At most one probe is
// active per run.
func (m *Medium) SetProbe(p model.PacketProbe) {
	m.probe = p
}

func (m *Medium) nextSeq() uint64 {
	m.frameSeq++
	return m.frameSeq
}

func (m *Medium) tap(node int, dir model.FrameDirection, ts float64, f *model.Frame) {
	for _, t := range m.taps {
		t.HandleFrame(node, dir, ts, f)
	}
}

func (m *Medium) inRange(a, b *Device) bool {
	dx := a.node.X - b.node.X
	dy := a.node.Y - b.node.Y
	return math.Sqrt(dx*dx+dy*dy) <= m.cfg.RangeM
}

// airtime returns the channel occupancy of one frame in seconds. Frames
// above the RTS/CTS threshold pay the handshake on top.
func (m *Medium) airtime(payload int) float64 {
	wire := payload + m.cfg.HeaderOverheadBytes
	bitrate := m.cfg.BitrateMbps * 1e6
	t := float64(wire*8) / bitrate
	if wire > m.cfg.RTSCTSThreshold {
		t += float64(rtsCtsBytes*8) / bitrate
	}
	return t
}

// transmit claims the channel for one hop of f from src to f.Receiver.
// The sender's queue resumes when the frame leaves the air, whether or
// not it was delivered.
func (m *Medium) transmit(src *Device, f *model.Frame) {
	dst := m.devices[f.Receiver]

	backoff := float64(m.rng.Intn(contentionSlots)) * slotTime
	start := math.Max(m.sched.Now(), m.busyUntil) + backoff
	air := m.airtime(f.Payload)
	m.busyUntil = start + air
	end := start + air

	delivered := m.inRange(src, dst)
	if delivered && m.cfg.FrameErrorProb > 0 {
		delivered = m.rng.Float64() >= m.cfg.FrameErrorProb
	}

	m.sched.ScheduleAt(start, func() {
		m.tap(src.node.ID, model.FrameTx, start, f)
	})
	m.sched.ScheduleAt(end, func() {
		if delivered {
			dst.receiveFrame(end, f)
		}
		src.transmitNext()
	})
}
