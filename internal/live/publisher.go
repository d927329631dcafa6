// Package live streams frame events to NATS while a run executes.
package live

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/model"
)

// FrameEvent is the wire form of one observed frame.
type FrameEvent struct {
	RunID     string  `json:"run_id"`
	Node      int     `json:"node"`
	Direction string  `json:"dir"`
	Time      float64 `json:"time"`
	SrcIP     string  `json:"src_ip"`
	DstIP     string  `json:"dst_ip"`
	SrcPort   uint16  `json:"src_port"`
	DstPort   uint16  `json:"dst_port"`
	Bytes     int     `json:"bytes"`
}

// Publisher forwards every tapped frame to a NATS subject as JSON.
// It implements model.FrameTap.
type Publisher struct {
	nc      *nats.Conn
	subject string
	runID   string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.LiveConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// SetRunID stamps subsequent events with the active run's id.
func (p *Publisher) SetRunID(runID string) {
	p.runID = runID
}

// HandleFrame publishes one frame event. The feed is best effort:
// publish errors are logged, never propagated into the run.
func (p *Publisher) HandleFrame(node int, dir model.FrameDirection, ts float64, frame *model.Frame) {
	event := FrameEvent{
		RunID:     p.runID,
		Node:      node,
		Direction: dir.String(),
		Time:      ts,
		SrcIP:     frame.SrcIP.String(),
		DstIP:     frame.DstIP.String(),
		SrcPort:   frame.SrcPort,
		DstPort:   frame.DstPort,
		Bytes:     frame.Payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Publisher: failed to marshal frame event: %v", err)
		return
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		log.Printf("Publisher: failed to publish frame event: %v", err)
	}
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
