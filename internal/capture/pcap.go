// Package capture records per-device traffic as pcap files.
package capture

import (
	"fmt"
	"log"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/huyhayho2110/netsim/internal/model"
)

const snapshotLen = 1600

// FileName returns the capture artifact name for one device. Files are
// keyed by node index alone, so successive runs reuse the same names.
func FileName(node int) string {
	return fmt.Sprintf("wifi-node-%d.pcap", node)
}

// deviceMAC derives a stable locally administered address from a node
// index.
func deviceMAC(node int) net.HardwareAddr {
	n := node + 1
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, byte(n >> 8), byte(n)}
}

// Recorder implements model.FrameTap and writes every frame a device
// transmits or receives into that device's capture file. Simulated
// seconds are mapped onto a fixed epoch so timestamps line up across
// files.
type Recorder struct {
	files   []*os.File
	writers []*pcapgo.Writer
	base    time.Time
}

// NewRecorder creates one capture file per node index in dir.
func NewRecorder(dir string, nodeCount int) (*Recorder, error) {
	r := &Recorder{base: time.Unix(0, 0).UTC()}
	for i := 0; i < nodeCount; i++ {
		path := filepath.Join(dir, FileName(i))
		file, err := os.Create(path)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to create capture file '%s': %w", path, err)
		}
		writer := pcapgo.NewWriter(file)
		if err := writer.WriteFileHeader(snapshotLen, layers.LinkTypeEthernet); err != nil {
			file.Close()
			r.Close()
			return nil, fmt.Errorf("failed to write capture header for '%s': %w", path, err)
		}
		r.files = append(r.files, file)
		r.writers = append(r.writers, writer)
	}
	return r, nil
}

// HandleFrame synthesizes the frame into an Ethernet/IPv4/UDP packet
// and appends it to the node's capture file.
func (r *Recorder) HandleFrame(node int, dir model.FrameDirection, ts float64, frame *model.Frame) {
	if node < 0 || node >= len(r.writers) {
		return
	}
	data, err := buildFrame(frame)
	if err != nil {
		log.Printf("Recorder: failed to build frame for node %d: %v", node, err)
		return
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     r.base.Add(time.Duration(ts * float64(time.Second))),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := r.writers[node].WritePacket(ci, data); err != nil {
		log.Printf("Recorder: failed to write packet for node %d: %v", node, err)
	}
}

// Close flushes and closes every capture file.
func (r *Recorder) Close() error {
	var firstErr error
	for _, file := range r.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.files = nil
	r.writers = nil
	return firstErr
}

// buildFrame serializes a simulated frame as a real packet. The
// payload content is zeros; only sizes and headers matter downstream.
func buildFrame(f *model.Frame) ([]byte, error) {
	ethLayer := &layers.Ethernet{
		SrcMAC:       deviceMAC(f.Sender),
		DstMAC:       deviceMAC(f.Receiver),
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP(f.SrcIP.AsSlice()),
		DstIP:    net.IP(f.DstIP.AsSlice()),
	}
	udpLayer := &layers.UDP{
		SrcPort: layers.UDPPort(f.SrcPort),
		DstPort: layers.UDPPort(f.DstPort),
	}
	if err := udpLayer.SetNetworkLayerForChecksum(ipLayer); err != nil {
		return nil, fmt.Errorf("failed to bind checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	payload := make([]byte, f.Payload)
	if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, udpLayer, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("failed to serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseFrame decodes a recorded packet back into its flow key and
// payload length.
func ParseFrame(data []byte) (model.FlowKey, int, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return model.FlowKey{}, 0, fmt.Errorf("packet carries no IPv4 layer")
	}
	ip := ipLayer.(*layers.IPv4)

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return model.FlowKey{}, 0, fmt.Errorf("packet carries no UDP layer")
	}
	udp := udpLayer.(*layers.UDP)

	src, ok := netip.AddrFromSlice(ip.SrcIP)
	if !ok {
		return model.FlowKey{}, 0, fmt.Errorf("invalid source address %v", ip.SrcIP)
	}
	dst, ok := netip.AddrFromSlice(ip.DstIP)
	if !ok {
		return model.FlowKey{}, 0, fmt.Errorf("invalid destination address %v", ip.DstIP)
	}

	key := model.FlowKey{
		SrcIP:    src,
		DstIP:    dst,
		SrcPort:  uint16(udp.SrcPort),
		DstPort:  uint16(udp.DstPort),
		Protocol: uint8(ip.Protocol),
	}
	return key, len(udp.Payload), nil
}
