package main

import (
	"flag"
	"log"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// pcapgen emits a capture shaped like the sweep's wifi-node-<i>.pcap
// artifacts: UDP echo requests walking the ring 10.1.1.1 .. 10.1.1.<n>.
// Useful for exercising scripts/pcapana without running a sweep.
func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	packetCount := flag.Int("c", 1000, "Number of packets to generate")
	nodeCount := flag.Int("n", 4, "Number of simulated nodes in the ring")
	flag.Parse()

	if *nodeCount < 2 || *nodeCount > 254 {
		log.Fatalf("Node count must be in [2, 254], got %d", *nodeCount)
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(1600, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	log.Printf("Generating %d packets into %s...", *packetCount, *outputFile)

	base := time.Unix(0, 0).UTC()
	for i := 0; i < *packetCount; i++ {
		src := i % *nodeCount
		dst := (src + 1) % *nodeCount

		ethLayer := &layers.Ethernet{
			SrcMAC:       nodeMAC(src),
			DstMAC:       nodeMAC(dst),
			EthernetType: layers.EthernetTypeIPv4,
		}
		ipLayer := &layers.IPv4{
			SrcIP:    net.IPv4(10, 1, 1, byte(src+1)),
			DstIP:    net.IPv4(10, 1, 1, byte(dst+1)),
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
		}
		udpLayer := &layers.UDP{
			SrcPort: 49153,
			DstPort: 443,
		}
		udpLayer.SetNetworkLayerForChecksum(ipLayer)

		payload := make([]byte, 512)

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{
			ComputeChecksums: true,
			FixLengths:       true,
		}
		if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, udpLayer, gopacket.Payload(payload)); err != nil {
			log.Fatalf("Failed to serialize layers: %v", err)
		}

		// Mirror the run's timing: traffic starts at 1.0s, one frame
		// every 5 ms.
		ci := gopacket.CaptureInfo{
			Timestamp:     base.Add(time.Second + time.Duration(i)*5*time.Millisecond),
			CaptureLength: len(buf.Bytes()),
			Length:        len(buf.Bytes()),
		}
		if err := pcapWriter.WritePacket(ci, buf.Bytes()); err != nil {
			log.Fatalf("Failed to write packet: %v", err)
		}
	}

	log.Printf("Successfully generated %d packets into %s.", *packetCount, *outputFile)
}

func nodeMAC(node int) net.HardwareAddr {
	n := node + 1
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, byte(n >> 8), byte(n)}
}
