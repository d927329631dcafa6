package main

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"

	"github.com/huyhayho2110/netsim/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <gob_file>")
		os.Exit(1)
	}
	gobFile := os.Args[1]

	file, err := os.Open(gobFile)
	if err != nil {
		log.Fatalf("Unable to open file: %v", err)
	}
	defer file.Close()

	var snap model.Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		log.Fatalf("Failed to decode gob data: %v", err)
	}

	fmt.Printf("Run %s: %d nodes, %d flows, %.1fs\n",
		snap.RunID, snap.NodeCount, len(snap.Flows), snap.Duration)

	var tx, rx, lost uint64
	fmt.Println("Decoded Flows:")
	for _, st := range snap.Flows {
		fmt.Printf("  flow %d: %s:%d -> %s:%d proto=%d tx=%d rx=%d lost=%d\n",
			st.FlowID,
			st.Key.SrcIP, st.Key.SrcPort,
			st.Key.DstIP, st.Key.DstPort,
			st.Key.Protocol,
			st.TxPackets, st.RxPackets, st.LostPackets,
		)
		tx += st.TxPackets
		rx += st.RxPackets
		lost += st.LostPackets
	}
	fmt.Printf("Total: tx=%d rx=%d lost=%d\n", tx, rx, lost)
}
