package flowmon

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS flow_stats (
    RunID       String,
    Timestamp   DateTime,
    NodeCount   UInt16,
    FlowID      UInt32,
    SrcIP       String,
    DstIP       String,
    SrcPort     UInt16,
    DstPort     UInt16,
    Protocol    UInt8,
    TxBytes     UInt64,
    RxBytes     UInt64,
    TxPackets   UInt64,
    RxPackets   UInt64,
    LostPackets UInt64,
    DelaySumNs  Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (RunID, NodeCount, FlowID);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and makes sure the flow_stats table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

func (w *ClickHouseWriter) Name() string { return "clickhouse" }

// Write inserts one row per flow into the flow_stats table.
func (w *ClickHouseWriter) Write(snap *model.Snapshot) error {
	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO flow_stats")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedAt := time.Now().UTC()
	for _, st := range snap.Flows {
		err = batch.Append(
			snap.RunID,
			insertedAt,
			uint16(snap.NodeCount),
			uint32(st.FlowID),
			st.Key.SrcIP.String(),
			st.Key.DstIP.String(),
			st.Key.SrcPort,
			st.Key.DstPort,
			st.Key.Protocol,
			st.TxBytes,
			st.RxBytes,
			st.TxPackets,
			st.RxPackets,
			st.LostPackets,
			st.DelaySum*1e9,
		)
		if err != nil {
			return fmt.Errorf("failed to append flow to batch: %w", err)
		}
	}

	if len(snap.Flows) == 0 {
		return nil // Nothing to write
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d flows to ClickHouse for run '%s'", len(snap.Flows), snap.RunID)
	return nil
}
