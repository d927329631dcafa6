package flowmon

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huyhayho2110/netsim/internal/model"
)

// BuildReport derives the printable view for flow ids DataFlowBase
// through the run's node count. An id that never carried traffic
// yields None markers and a NaN loss ratio, never an error.
func BuildReport(snap *model.Snapshot) *model.Report {
	rep := &model.Report{NodeCount: snap.NodeCount}
	for id := DataFlowBase; id <= snap.NodeCount; id++ {
		st := snap.ByID(id)
		fr := model.FlowReport{
			FlowID:    id,
			TxPackets: st.TxPackets,
			RxPackets: st.RxPackets,
			LossRatio: float64(st.LostPackets) / float64(st.TxPackets) * 100.0,
		}
		if st.TxBytes > 0 {
			fr.TxBitrate = float64(st.TxBytes) * 8.0 / (snap.Duration * 1000.0)
			fr.HasTxBitrate = true
		}
		if st.RxBytes > 0 {
			fr.RxBitrate = float64(st.RxBytes) * 8.0 / (snap.Duration * 1000.0)
			fr.HasRxBitrate = true
		}
		if st.RxPackets > 0 {
			fr.MeanDelay = time.Duration(st.DelaySum / float64(st.RxPackets) * float64(time.Second))
			fr.HasMeanDelay = true
		}
		rep.Flows = append(rep.Flows, fr)
	}
	return rep
}

// formatFloat renders report values with six significant digits, the
// precision the report has always used. NaN is spelled out.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// WriteReport prints one block per reported flow.
func WriteReport(w io.Writer, rep *model.Report) {
	for _, fr := range rep.Flows {
		fmt.Fprintf(w, "======= FlowID: %d =======\n", fr.FlowID)
		if fr.HasTxBitrate {
			fmt.Fprintf(w, "TX bitrates: %s kbit/s\n", formatFloat(fr.TxBitrate))
		} else {
			fmt.Fprintln(w, "TX bitrates: None")
		}
		if fr.HasRxBitrate {
			fmt.Fprintf(w, "RX bitrate: %s kbit/s\n", formatFloat(fr.RxBitrate))
		} else {
			fmt.Fprintln(w, "RX bitrate: None")
		}
		fmt.Fprintf(w, "TX packets: %d\n", fr.TxPackets)
		fmt.Fprintf(w, "RX packets: %d\n", fr.RxPackets)
		if fr.HasMeanDelay {
			fmt.Fprintf(w, "Mean delay: %v\n", fr.MeanDelay)
		} else {
			fmt.Fprintln(w, "Mean delay: None")
		}
		fmt.Fprintf(w, "Packet loss ratio: %s%%\n", formatFloat(fr.LossRatio))
	}
}
