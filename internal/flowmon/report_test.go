package flowmon

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huyhayho2110/netsim/internal/model"
)

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		RunID:     "test-run",
		NodeCount: 3,
		Duration:  24.0,
		Flows: []model.FlowStats{
			{
				FlowID:    2,
				TxBytes:   5120,
				RxBytes:   5120,
				TxPackets: 10,
				RxPackets: 10,
				DelaySum:  0.25,
			},
		},
	}
}

func TestBuildReportCoversReportedRange(t *testing.T) {
	snap := &model.Snapshot{NodeCount: 5, Duration: 24.0}
	rep := BuildReport(snap)
	require.Len(t, rep.Flows, 4)
	for i, fr := range rep.Flows {
		assert.Equal(t, i+DataFlowBase, fr.FlowID)
	}
}

func TestBuildReportValues(t *testing.T) {
	rep := BuildReport(sampleSnapshot())
	require.Len(t, rep.Flows, 2)

	active := rep.Flows[0]
	require.True(t, active.HasTxBitrate)
	require.True(t, active.HasRxBitrate)
	require.True(t, active.HasMeanDelay)
	assert.Equal(t, 5120*8.0/(24.0*1000.0), active.TxBitrate)
	assert.Equal(t, 25*time.Millisecond, active.MeanDelay)
	assert.Zero(t, active.LossRatio)

	idle := rep.Flows[1]
	assert.False(t, idle.HasTxBitrate)
	assert.False(t, idle.HasRxBitrate)
	assert.False(t, idle.HasMeanDelay)
	assert.True(t, math.IsNaN(idle.LossRatio), "loss ratio of an absent flow is 0/0")
}

func TestBuildReportPartialLoss(t *testing.T) {
	snap := &model.Snapshot{
		NodeCount: 2,
		Duration:  24.0,
		Flows: []model.FlowStats{
			{FlowID: 2, TxBytes: 1536, TxPackets: 3, RxBytes: 1024, RxPackets: 2, LostPackets: 1, DelaySum: 0.02},
		},
	}
	rep := BuildReport(snap)
	assert.InDelta(t, 1.0/3.0*100.0, rep.Flows[0].LossRatio, 1e-9)
}

func TestWriteReportOutput(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, BuildReport(sampleSnapshot()))

	want := "======= FlowID: 2 =======\n" +
		"TX bitrates: 1.70667 kbit/s\n" +
		"RX bitrate: 1.70667 kbit/s\n" +
		"TX packets: 10\n" +
		"RX packets: 10\n" +
		"Mean delay: 25ms\n" +
		"Packet loss ratio: 0%\n" +
		"======= FlowID: 3 =======\n" +
		"TX bitrates: None\n" +
		"RX bitrate: None\n" +
		"TX packets: 0\n" +
		"RX packets: 0\n" +
		"Mean delay: None\n" +
		"Packet loss ratio: NaN%\n"

	assert.Equal(t, want, buf.String())
}

func TestFormatFloatSignificantDigits(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.7066666666666668, "1.70667"},
		{0, "0"},
		{100.0 / 3.0, "33.3333"},
		{math.NaN(), "NaN"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatFloat(c.in), "formatFloat(%v)", c.in)
	}
}
