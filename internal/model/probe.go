package model

// PacketProbe observes end-to-end packet life events: once when a
// packet leaves its origin and once when it is delivered at its final
// destination. Forwarding hops are invisible to the probe, so a packet
// is counted at most once in each direction.
type PacketProbe interface {
	PacketSent(ts float64, key FlowKey, bytes int)
	PacketReceived(ts float64, key FlowKey, bytes int, sentAt float64)
}
