package live

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/huyhayho2110/netsim/internal/config"
)

// EventHandler is a function that processes a received FrameEvent.
type EventHandler func(event FrameEvent)

// Subscriber consumes the frame-event feed a running sweep publishes.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber for the live feed.
func NewSubscriber(cfg config.LiveConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the feed subject and hands every decoded event to
// the provided handler.
func (s *Subscriber) Start(handler EventHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var event FrameEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("Error unmarshalling frame event: %v", err)
			return
		}
		handler(event)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
