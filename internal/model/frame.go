package model

import "net/netip"

// ProtocolUDP is the IP protocol number carried by every simulated frame.
const ProtocolUDP = 17

// Frame is one link-layer transmission between neighboring devices.
// The IP fields are end-to-end; Sender and Receiver are per hop and are
// rewritten when a frame is forwarded. SentAt is the simulated time the
// packet left its origin, used for end-to-end delay.
type Frame struct {
	Seq      uint64
	SrcIP    netip.Addr
	DstIP    netip.Addr
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
	Payload  int
	Sender   int
	Receiver int
	Hops     int
	SentAt   float64
}

// Key returns the flow key of the packet this frame carries.
func (f *Frame) Key() FlowKey {
	return FlowKey{
		SrcIP:    f.SrcIP,
		DstIP:    f.DstIP,
		SrcPort:  f.SrcPort,
		DstPort:  f.DstPort,
		Protocol: f.Protocol,
	}
}

// FrameDirection says whether a tap observed a frame leaving or
// entering the device.
type FrameDirection uint8

const (
	FrameTx FrameDirection = iota
	FrameRx
)

func (d FrameDirection) String() string {
	if d == FrameTx {
		return "tx"
	}
	return "rx"
}

// FrameTap observes every frame a device transmits or receives,
// including forwarded ones. Taps run synchronously on the simulated
// clock and must not block.
type FrameTap interface {
	HandleFrame(node int, dir FrameDirection, ts float64, frame *Frame)
}
