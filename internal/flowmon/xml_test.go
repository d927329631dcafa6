package flowmon

import (
	"bytes"
	"math"
	"net/netip"
	"strings"
	"testing"

	"github.com/huyhayho2110/netsim/internal/model"
)

func traceSnapshot() *model.Snapshot {
	return &model.Snapshot{
		RunID:     "trace-run",
		NodeCount: 2,
		Duration:  24.0,
		Flows: []model.FlowStats{
			{
				FlowID: 1,
				Key: model.FlowKey{
					SrcIP:    netip.MustParseAddr("10.1.1.1"),
					DstIP:    netip.MustParseAddr("10.1.1.2"),
					SrcPort:  698,
					DstPort:  698,
					Protocol: model.ProtocolUDP,
				},
				TxBytes: 128, RxBytes: 128, TxPackets: 2, RxPackets: 2,
				FirstTx: 0.0012, LastTx: 0.0078, FirstRx: 0.0013, LastRx: 0.0079,
				DelaySum: 0.0002,
			},
			{
				FlowID: 2,
				Key: model.FlowKey{
					SrcIP:    netip.MustParseAddr("10.1.1.1"),
					DstIP:    netip.MustParseAddr("10.1.1.2"),
					SrcPort:  49153,
					DstPort:  443,
					Protocol: model.ProtocolUDP,
				},
				TxBytes: 5120, RxBytes: 4608, TxPackets: 10, RxPackets: 9, LostPackets: 1,
				FirstTx: 1.0, LastTx: 1.045, FirstRx: 1.001, LastRx: 1.046,
				DelaySum: 0.25,
			},
		},
	}
}

func TestXMLRoundTrip(t *testing.T) {
	snap := traceSnapshot()

	var buf bytes.Buffer
	if err := WriteXML(&buf, snap); err != nil {
		t.Fatalf("WriteXML failed: %v", err)
	}

	got, err := ReadXML(&buf)
	if err != nil {
		t.Fatalf("ReadXML failed: %v", err)
	}

	if got.RunID != snap.RunID || got.NodeCount != snap.NodeCount || got.Duration != snap.Duration {
		t.Errorf("Run metadata mismatch: got %q/%d/%v", got.RunID, got.NodeCount, got.Duration)
	}
	if len(got.Flows) != len(snap.Flows) {
		t.Fatalf("Expected %d flows, got %d", len(snap.Flows), len(got.Flows))
	}
	for i, want := range snap.Flows {
		g := got.Flows[i]
		if g.FlowID != want.FlowID || g.Key != want.Key {
			t.Errorf("Flow %d: identity mismatch: got %d %v", i, g.FlowID, g.Key)
		}
		if g.TxBytes != want.TxBytes || g.RxBytes != want.RxBytes ||
			g.TxPackets != want.TxPackets || g.RxPackets != want.RxPackets ||
			g.LostPackets != want.LostPackets {
			t.Errorf("Flow %d: counter mismatch: got %+v", i, g)
		}
		for name, pair := range map[string][2]float64{
			"firstTx":  {g.FirstTx, want.FirstTx},
			"lastTx":   {g.LastTx, want.LastTx},
			"firstRx":  {g.FirstRx, want.FirstRx},
			"lastRx":   {g.LastRx, want.LastRx},
			"delaySum": {g.DelaySum, want.DelaySum},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-9 {
				t.Errorf("Flow %d: %s drifted: got %v, want %v", i, name, pair[0], pair[1])
			}
		}
	}
}

func TestXMLDocumentShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXML(&buf, traceSnapshot()); err != nil {
		t.Fatalf("WriteXML failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<FlowMonitor runId="trace-run" nodeCount="2" durationSeconds="24">`,
		`flowId="2"`,
		`timeFirstTxPacket="+1000000000.0ns"`,
		`sourceAddress="10.1.1.1"`,
		`destinationPort="443"`,
		`<FlowStats>`,
		`<FlowClassifier>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Trace document is missing %q:\n%s", want, out)
		}
	}
}

func TestReadXMLRejectsGarbage(t *testing.T) {
	if _, err := ReadXML(strings.NewReader("not xml at all")); err == nil {
		t.Fatal("Expected an error for a malformed document")
	}
}
