package capture

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket/pcapgo"

	"github.com/huyhayho2110/netsim/internal/model"
)

func sampleFrame() *model.Frame {
	return &model.Frame{
		Seq:      1,
		SrcIP:    netip.MustParseAddr("10.1.1.1"),
		DstIP:    netip.MustParseAddr("10.1.1.2"),
		SrcPort:  49153,
		DstPort:  443,
		Protocol: model.ProtocolUDP,
		Payload:  512,
		Sender:   0,
		Receiver: 1,
		SentAt:   1.0,
	}
}

func TestBuildFrameRoundTrip(t *testing.T) {
	frame := sampleFrame()
	data, err := buildFrame(frame)
	if err != nil {
		t.Fatalf("buildFrame failed: %v", err)
	}

	key, payloadLen, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if key != frame.Key() {
		t.Errorf("Expected key %v, got %v", frame.Key(), key)
	}
	if payloadLen != frame.Payload {
		t.Errorf("Expected %d payload bytes, got %d", frame.Payload, payloadLen)
	}
}

func TestDeviceMACDerivation(t *testing.T) {
	if got := deviceMAC(0).String(); got != "02:00:00:00:00:01" {
		t.Errorf("Node 0: got %s", got)
	}
	if got := deviceMAC(255).String(); got != "02:00:00:00:01:00" {
		t.Errorf("Node 255: got %s", got)
	}
	if deviceMAC(3)[0]&0x02 == 0 {
		t.Error("Expected a locally administered address")
	}
}

func TestRecorderWritesPerDeviceFiles(t *testing.T) {
	// 1. Record one frame as tx on node 0 and rx on node 1
	tmpDir, err := os.MkdirTemp("", "capture_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	rec, err := NewRecorder(tmpDir, 2)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	frame := sampleFrame()
	rec.HandleFrame(0, model.FrameTx, 1.5, frame)
	rec.HandleFrame(1, model.FrameRx, 1.5, frame)
	rec.HandleFrame(9, model.FrameRx, 1.5, frame) // out of range, ignored
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// 2. Both capture files exist and carry the frame
	for node := 0; node < 2; node++ {
		path := filepath.Join(tmpDir, FileName(node))
		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("Expected capture file for node %d: %v", node, err)
		}

		reader, err := pcapgo.NewReader(file)
		if err != nil {
			t.Fatalf("Node %d: capture header unreadable: %v", node, err)
		}
		data, ci, err := reader.ReadPacketData()
		if err != nil {
			t.Fatalf("Node %d: failed to read packet: %v", node, err)
		}

		key, payloadLen, err := ParseFrame(data)
		if err != nil {
			t.Fatalf("Node %d: recorded packet does not parse: %v", node, err)
		}
		if key != frame.Key() || payloadLen != frame.Payload {
			t.Errorf("Node %d: recorded %v with %d payload bytes", node, key, payloadLen)
		}

		wantTS := time.Unix(0, 0).UTC().Add(1500 * time.Millisecond)
		if !ci.Timestamp.Equal(wantTS) {
			t.Errorf("Node %d: expected timestamp %v, got %v", node, wantTS, ci.Timestamp)
		}

		if _, _, err := reader.ReadPacketData(); err == nil {
			t.Errorf("Node %d: expected exactly one packet", node)
		}
		file.Close()
	}
}

func TestRecorderFileNames(t *testing.T) {
	if FileName(12) != "wifi-node-12.pcap" {
		t.Errorf("Unexpected capture name %q", FileName(12))
	}
}
