package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/live"
)

// netsim-watch tails the live frame-event feed of a running sweep.
// The sweep publishes only when live.enabled is set in its config.
func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Println("Configuration loaded successfully.")
	}

	sub, err := live.NewSubscriber(cfg.Live)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(event live.FrameEvent) {
		log.Printf("run=%s node=%d %s %s:%d -> %s:%d %d bytes at %.6fs",
			event.RunID, event.Node, event.Direction,
			event.SrcIP, event.SrcPort, event.DstIP, event.DstPort,
			event.Bytes, event.Time)
	}

	if err := sub.Start(handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
