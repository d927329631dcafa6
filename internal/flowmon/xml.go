package flowmon

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/huyhayho2110/netsim/internal/model"
)

// The trace document keeps counters and classifier rows in separate
// lists joined by flow id, with times carried as "+<ns>ns" strings.

type xmlDoc struct {
	XMLName    xml.Name       `xml:"FlowMonitor"`
	RunID      string         `xml:"runId,attr"`
	NodeCount  int            `xml:"nodeCount,attr"`
	Duration   float64        `xml:"durationSeconds,attr"`
	Stats      []xmlFlowStats `xml:"FlowStats>Flow"`
	Classifier []xmlFlowClass `xml:"FlowClassifier>Flow"`
}

type xmlFlowStats struct {
	FlowID            int    `xml:"flowId,attr"`
	TimeFirstTxPacket string `xml:"timeFirstTxPacket,attr"`
	TimeFirstRxPacket string `xml:"timeFirstRxPacket,attr"`
	TimeLastTxPacket  string `xml:"timeLastTxPacket,attr"`
	TimeLastRxPacket  string `xml:"timeLastRxPacket,attr"`
	DelaySum          string `xml:"delaySum,attr"`
	TxBytes           uint64 `xml:"txBytes,attr"`
	RxBytes           uint64 `xml:"rxBytes,attr"`
	TxPackets         uint64 `xml:"txPackets,attr"`
	RxPackets         uint64 `xml:"rxPackets,attr"`
	LostPackets       uint64 `xml:"lostPackets,attr"`
}

type xmlFlowClass struct {
	FlowID             int    `xml:"flowId,attr"`
	SourceAddress      string `xml:"sourceAddress,attr"`
	DestinationAddress string `xml:"destinationAddress,attr"`
	Protocol           uint8  `xml:"protocol,attr"`
	SourcePort         uint16 `xml:"sourcePort,attr"`
	DestinationPort    uint16 `xml:"destinationPort,attr"`
}

func nsTime(seconds float64) string {
	return fmt.Sprintf("+%.1fns", seconds*1e9)
}

func parseNsTime(v string) (float64, error) {
	s := strings.TrimSuffix(strings.TrimPrefix(v, "+"), "ns")
	ns, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse trace time %q: %w", v, err)
	}
	return ns / 1e9, nil
}

// WriteXML serializes a snapshot as a flow trace document.
func WriteXML(w io.Writer, snap *model.Snapshot) error {
	doc := xmlDoc{
		RunID:     snap.RunID,
		NodeCount: snap.NodeCount,
		Duration:  snap.Duration,
	}
	for _, st := range snap.Flows {
		doc.Stats = append(doc.Stats, xmlFlowStats{
			FlowID:            st.FlowID,
			TimeFirstTxPacket: nsTime(st.FirstTx),
			TimeFirstRxPacket: nsTime(st.FirstRx),
			TimeLastTxPacket:  nsTime(st.LastTx),
			TimeLastRxPacket:  nsTime(st.LastRx),
			DelaySum:          nsTime(st.DelaySum),
			TxBytes:           st.TxBytes,
			RxBytes:           st.RxBytes,
			TxPackets:         st.TxPackets,
			RxPackets:         st.RxPackets,
			LostPackets:       st.LostPackets,
		})
		doc.Classifier = append(doc.Classifier, xmlFlowClass{
			FlowID:             st.FlowID,
			SourceAddress:      st.Key.SrcIP.String(),
			DestinationAddress: st.Key.DstIP.String(),
			Protocol:           st.Key.Protocol,
			SourcePort:         st.Key.SrcPort,
			DestinationPort:    st.Key.DstPort,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write trace header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode flow trace: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to finish flow trace: %w", err)
	}
	return nil
}

// ReadXML parses a flow trace document back into a snapshot. Flows
// come back in document order, which WriteXML keeps as flow id order.
func ReadXML(r io.Reader) (*model.Snapshot, error) {
	var doc xmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode flow trace: %w", err)
	}

	keys := make(map[int]model.FlowKey, len(doc.Classifier))
	for _, c := range doc.Classifier {
		src, err := netip.ParseAddr(c.SourceAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to parse source address for flow %d: %w", c.FlowID, err)
		}
		dst, err := netip.ParseAddr(c.DestinationAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to parse destination address for flow %d: %w", c.FlowID, err)
		}
		keys[c.FlowID] = model.FlowKey{
			SrcIP:    src,
			DstIP:    dst,
			SrcPort:  c.SourcePort,
			DstPort:  c.DestinationPort,
			Protocol: c.Protocol,
		}
	}

	snap := &model.Snapshot{
		RunID:     doc.RunID,
		NodeCount: doc.NodeCount,
		Duration:  doc.Duration,
		Flows:     make([]model.FlowStats, 0, len(doc.Stats)),
	}
	for _, fs := range doc.Stats {
		st := model.FlowStats{
			FlowID:      fs.FlowID,
			Key:         keys[fs.FlowID],
			TxBytes:     fs.TxBytes,
			RxBytes:     fs.RxBytes,
			TxPackets:   fs.TxPackets,
			RxPackets:   fs.RxPackets,
			LostPackets: fs.LostPackets,
		}
		var err error
		if st.FirstTx, err = parseNsTime(fs.TimeFirstTxPacket); err != nil {
			return nil, err
		}
		if st.FirstRx, err = parseNsTime(fs.TimeFirstRxPacket); err != nil {
			return nil, err
		}
		if st.LastTx, err = parseNsTime(fs.TimeLastTxPacket); err != nil {
			return nil, err
		}
		if st.LastRx, err = parseNsTime(fs.TimeLastRxPacket); err != nil {
			return nil, err
		}
		if st.DelaySum, err = parseNsTime(fs.DelaySum); err != nil {
			return nil, err
		}
		snap.Flows = append(snap.Flows, st)
	}
	return snap, nil
}
