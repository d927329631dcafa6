package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/experiment"
	"github.com/huyhayho2110/netsim/internal/flowmon"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	maxPackets := flag.Int("maxPackets", 10, "Max packets to send")
	interval := flag.Int("interval", 5, "Interval between packets in milliseconds")
	flag.Parse()

	// 1. Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Println("Configuration loaded successfully.")
	}

	// Flags given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "maxPackets":
			cfg.Experiment.MaxPackets = *maxPackets
		case "interval":
			cfg.Experiment.IntervalMs = *interval
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Build the snapshot writer chain
	writers := flowmon.NewWriters(cfg.Writers, cfg.Experiment.ArtifactsDir)

	// 3. Run the sweep until it finishes or a signal stops it
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := experiment.NewDriver(cfg, os.Stdout, writers)
	if err := driver.Sweep(ctx); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
}
