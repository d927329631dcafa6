package wireless

import (
	"net/netip"

	"github.com/huyhayho2110/netsim/internal/model"
)

// PacketHandler receives packets delivered to a bound port.
type PacketHandler func(ts float64, src netip.Addr, srcPort uint16, payload int)

// Device is one node's network interface: a FIFO transmit queue with a
// drop-tail cap, a next-hop table filled in when routes are computed,
// and the port bindings of the applications running on the node.
type Device struct {
	node     model.Node
	medium   *Medium
	queue    []*model.Frame
	busy     bool
	nextHop  map[netip.Addr]int
	handlers map[uint16]PacketHandler
}

// Node returns the node this device is attached to.
func (d *Device) Node() model.Node {
	return d.node
}

// Addr returns the device's assigned address.
func (d *Device) Addr() netip.Addr {
	return d.node.Addr
}

// Bind installs a handler for packets addressed to the given port.
func (d *Device) Bind(port uint16, h PacketHandler) {
	d.handlers[port] = h
}

// SendTo originates a packet from this device. The packet is counted as
// transmitted the moment it enters the device, so queue drops and
// undeliverable frames surface as losses. Sending to the own address
// delivers locally without touching the medium.
func (d *Device) SendTo(dst netip.Addr, srcPort, dstPort uint16, payload int) {
	now := d.medium.sched.Now()
	f := &model.Frame{
		Seq:      d.medium.nextSeq(),
		SrcIP:    d.node.Addr,
		DstIP:    dst,
		SrcPort:  srcPort,
		DstPort:  dstPort,
		Protocol: model.ProtocolUDP,
		Payload:  payload,
		Sender:   d.node.ID,
		SentAt:   now,
	}
	if p := d.medium.probe; p != nil {
		p.PacketSent(now, f.Key(), payload)
	}
	if dst == d.node.Addr {
		if p := d.medium.probe; p != nil {
			p.PacketReceived(now, f.Key(), payload, now)
		}
		d.deliver(now, f)
		return
	}
	d.enqueue(f)
}

func (d *Device) enqueue(f *model.Frame) {
	if len(d.queue) >= d.medium.cfg.QueueCap {
		// Drop-tail. The packet stays counted as transmitted and turns
		// up as a loss when the run's statistics are collected.
		return
	}
	d.queue = append(d.queue, f)
	if !d.busy {
		d.busy = true
		d.medium.sched.Schedule(0, d.transmitNext)
	}
}

// transmitNext starts the next queued frame, skipping frames with no
// known route. The device stays busy until its queue drains.
func (d *Device) transmitNext() {
	for len(d.queue) > 0 {
		f := d.queue[0]
		d.queue = d.queue[1:]
		next, ok := d.nextHop[f.DstIP]
		if !ok {
			continue
		}
		f.Receiver = next
		d.medium.transmit(d, f)
		return
	}
	d.busy = false
}

// receiveFrame handles a frame arriving over the air: deliver it if the
// destination address is ours, otherwise put it back on the queue for
// the next hop.
func (d *Device) receiveFrame(ts float64, f *model.Frame) {
	d.medium.tap(d.node.ID, model.FrameRx, ts, f)
	if f.DstIP == d.node.Addr {
		if p := d.medium.probe; p != nil {
			p.PacketReceived(ts, f.Key(), f.Payload, f.SentAt)
		}
		d.deliver(ts, f)
		return
	}
	d.forward(f)
}

func (d *Device) deliver(ts float64, f *model.Frame) {
	if h, ok := d.handlers[f.DstPort]; ok {
		h(ts, f.SrcIP, f.SrcPort, f.Payload)
	}
}

func (d *Device) forward(f *model.Frame) {
	if f.Hops >= maxHops {
		return
	}
	next := *f
	next.Hops++
	next.Sender = d.node.ID
	d.enqueue(&next)
}
