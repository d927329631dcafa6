// Package query serves persisted run results to the API server.
package query

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/huyhayho2110/netsim/internal/flowmon"
	"github.com/huyhayho2110/netsim/internal/model"
)

// RunInfo summarizes one persisted run.
type RunInfo struct {
	RunID     string `json:"run_id"`
	NodeCount int    `json:"node_count"`
	Flows     int    `json:"flows"`
}

// Querier defines the read interface over persisted runs.
type Querier interface {
	ListRuns(ctx context.Context) ([]RunInfo, error)
	FlowStats(ctx context.Context, nodeCount int) (*model.Snapshot, error)
	Report(ctx context.Context, nodeCount int) (*model.Report, error)
}

// artifactQuerier reads the flow trace artifacts a sweep leaves behind.
type artifactQuerier struct {
	dir string
}

// NewArtifactQuerier creates a querier over an artifacts directory.
func NewArtifactQuerier(dir string) Querier {
	return &artifactQuerier{dir: dir}
}

var tracePattern = regexp.MustCompile(`^flowmonitor-(\d+)-nodes\.xml$`)

func (q *artifactQuerier) ListRuns(ctx context.Context) ([]RunInfo, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifacts directory: %w", err)
	}

	var runs []RunInfo
	for _, entry := range entries {
		m := tracePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		nodeCount, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		snap, err := q.load(nodeCount)
		if err != nil {
			return nil, err
		}
		runs = append(runs, RunInfo{
			RunID:     snap.RunID,
			NodeCount: snap.NodeCount,
			Flows:     len(snap.Flows),
		})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].NodeCount < runs[j].NodeCount })
	return runs, nil
}

func (q *artifactQuerier) FlowStats(ctx context.Context, nodeCount int) (*model.Snapshot, error) {
	return q.load(nodeCount)
}

func (q *artifactQuerier) Report(ctx context.Context, nodeCount int) (*model.Report, error) {
	snap, err := q.load(nodeCount)
	if err != nil {
		return nil, err
	}
	return flowmon.BuildReport(snap), nil
}

func (q *artifactQuerier) load(nodeCount int) (*model.Snapshot, error) {
	path := filepath.Join(q.dir, flowmon.TraceFileName(nodeCount))
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace for %d nodes: %w", nodeCount, err)
	}
	defer file.Close()

	snap, err := flowmon.ReadXML(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trace for %d nodes: %w", nodeCount, err)
	}
	return snap, nil
}

// FlowReportDoc is the JSON rendering of one reported flow. Pointer
// fields are null where the text report prints None; the loss ratio is
// null when NaN, which JSON cannot carry.
type FlowReportDoc struct {
	FlowID        int      `json:"flow_id"`
	TxBitrateKbps *float64 `json:"tx_bitrate_kbps"`
	RxBitrateKbps *float64 `json:"rx_bitrate_kbps"`
	TxPackets     uint64   `json:"tx_packets"`
	RxPackets     uint64   `json:"rx_packets"`
	MeanDelayMs   *float64 `json:"mean_delay_ms"`
	LossRatioPct  *float64 `json:"loss_ratio_pct"`
}

// ReportDoc is the JSON form of a run report.
type ReportDoc struct {
	NodeCount int             `json:"node_count"`
	Flows     []FlowReportDoc `json:"flows"`
}

// NewReportDoc converts a report into its JSON-safe form.
func NewReportDoc(rep *model.Report) *ReportDoc {
	doc := &ReportDoc{NodeCount: rep.NodeCount, Flows: make([]FlowReportDoc, 0, len(rep.Flows))}
	for _, fr := range rep.Flows {
		d := FlowReportDoc{
			FlowID:    fr.FlowID,
			TxPackets: fr.TxPackets,
			RxPackets: fr.RxPackets,
		}
		if fr.HasTxBitrate {
			v := fr.TxBitrate
			d.TxBitrateKbps = &v
		}
		if fr.HasRxBitrate {
			v := fr.RxBitrate
			d.RxBitrateKbps = &v
		}
		if fr.HasMeanDelay {
			v := float64(fr.MeanDelay) / float64(time.Millisecond)
			d.MeanDelayMs = &v
		}
		if !math.IsNaN(fr.LossRatio) {
			v := fr.LossRatio
			d.LossRatioPct = &v
		}
		doc.Flows = append(doc.Flows, d)
	}
	return doc
}
