package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/huyhayho2110/netsim/internal/anim"
	"github.com/huyhayho2110/netsim/internal/capture"
	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/engine"
	"github.com/huyhayho2110/netsim/internal/fabric"
	"github.com/huyhayho2110/netsim/internal/flowmon"
	"github.com/huyhayho2110/netsim/internal/live"
	"github.com/huyhayho2110/netsim/internal/model"
	"github.com/huyhayho2110/netsim/internal/topology"
	"github.com/huyhayho2110/netsim/internal/traffic"
)

// Driver executes the sweep. Every node count gets a fresh scheduler,
// topology, fabric and monitor; only the writers, the frame taps and
// the optional live feed are shared across runs.
type Driver struct {
	cfg     *config.Config
	out     io.Writer
	writers []model.Writer
	taps    []model.FrameTap
	feed    *live.Publisher
}

// NewDriver creates a driver printing run output to out and persisting
// snapshots through writers. Extra taps observe every frame of every
// run, after the built-in capture recorder.
func NewDriver(cfg *config.Config, out io.Writer, writers []model.Writer, taps ...model.FrameTap) *Driver {
	return &Driver{cfg: cfg, out: out, writers: writers, taps: taps}
}

// Sweep runs every node count in [MinNodes, MaxNodes] in order.
func (d *Driver) Sweep(ctx context.Context) error {
	if d.cfg.Live.Enabled {
		feed, err := live.NewPublisher(d.cfg.Live)
		if err != nil {
			log.Printf("Warning: failed to start live feed: %v, skipping.", err)
		} else {
			d.feed = feed
			defer func() {
				d.feed.Close()
				d.feed = nil
			}()
		}
	}

	for n := d.cfg.Experiment.MinNodes; n <= d.cfg.Experiment.MaxNodes; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.RunOne(n); err != nil {
			return fmt.Errorf("run with %d nodes failed: %w", n, err)
		}
		fmt.Fprintf(d.out, "Simulation for %d nodes\n", n)
	}
	return nil
}

// RunOne executes the full pipeline for one node count: build, attach,
// install, run, persist, report.
func (d *Driver) RunOne(nodeCount int) error {
	run := &Run{ID: xid.New().String(), NodeCount: nodeCount}

	topo := topology.Build(nodeCount)
	if err := run.advance(StateBuilt); err != nil {
		return err
	}

	sched := engine.NewEventManager()

	recorder, err := capture.NewRecorder(d.cfg.Experiment.ArtifactsDir, nodeCount)
	if err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer recorder.Close()

	taps := append([]model.FrameTap{recorder}, d.taps...)
	if d.feed != nil {
		d.feed.SetRunID(run.ID)
		taps = append(taps, d.feed)
	}

	fab, err := fabric.Attach(sched, topo, d.cfg.Wireless, d.cfg.Experiment.Seed+int64(nodeCount), taps...)
	if err != nil {
		return fmt.Errorf("failed to attach network: %w", err)
	}
	if err := run.advance(StateNetworkAttached); err != nil {
		return err
	}

	// The monitor must see the first packet of every flow, so it
	// attaches before any traffic exists.
	monitor := flowmon.NewMonitor()
	monitor.Attach(fab)

	specs := traffic.InstallRing(sched, fab, traffic.Params{
		Port:       d.cfg.Traffic.Port,
		PacketSize: d.cfg.Traffic.PacketSize,
		Interval:   float64(d.cfg.Experiment.IntervalMs) / 1000.0,
		MaxPackets: d.cfg.Experiment.MaxPackets,
		Start:      d.cfg.Experiment.StartTime,
		Stop:       d.cfg.Experiment.StopTime,
	})
	if err := run.advance(StateTrafficInstalled); err != nil {
		return err
	}
	log.Printf("Run %s: installed %d echo clients across %d nodes.", run.ID, len(specs), nodeCount)

	if err := run.advance(StateRunning); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "Simulation running...")
	sched.Run(d.cfg.Experiment.StopTime)
	if err := run.advance(StateStopped); err != nil {
		return err
	}

	duration := d.cfg.Experiment.StopTime - d.cfg.Experiment.StartTime
	snap := monitor.Collect(run.ID, nodeCount, duration)

	for _, writer := range d.writers {
		if err := writer.Write(snap); err != nil {
			log.Printf("Error writing snapshot with writer %s: %v", writer.Name(), err)
		}
	}
	if err := anim.WriteFile(d.cfg.Experiment.ArtifactsDir, nodeCount); err != nil {
		return err
	}
	if err := d.writeSummary(snap); err != nil {
		return err
	}

	flowmon.WriteReport(d.out, flowmon.BuildReport(snap))
	return run.advance(StateReported)
}

// runSummary is the roll-up written beside the trace artifacts.
type runSummary struct {
	RunID           string  `json:"run_id"`
	NodeCount       int     `json:"node_count"`
	Flows           int     `json:"flows"`
	TxPackets       uint64  `json:"tx_packets"`
	RxPackets       uint64  `json:"rx_packets"`
	LostPackets     uint64  `json:"lost_packets"`
	TxBytes         uint64  `json:"tx_bytes"`
	RxBytes         uint64  `json:"rx_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       string  `json:"timestamp"`
}

func (d *Driver) writeSummary(snap *model.Snapshot) error {
	summary := runSummary{
		RunID:           snap.RunID,
		NodeCount:       snap.NodeCount,
		Flows:           len(snap.Flows),
		DurationSeconds: snap.Duration,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
	for _, st := range snap.Flows {
		summary.TxPackets += st.TxPackets
		summary.RxPackets += st.RxPackets
		summary.LostPackets += st.LostPackets
		summary.TxBytes += st.TxBytes
		summary.RxBytes += st.RxBytes
	}

	fileName := fmt.Sprintf("summary-%d-nodes.json", snap.NodeCount)
	path := filepath.Join(d.cfg.Experiment.ArtifactsDir, fileName)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	return nil
}
