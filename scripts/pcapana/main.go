package main

import (
	"fmt"
	"log"
	"os"

	"github.com/huyhayho2110/netsim/internal/capture"
	"github.com/huyhayho2110/netsim/pkg/pcap"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/pcapana/main.go <path_to_pcap_file>")
		os.Exit(1)
	}
	pcapFilePath := os.Args[1]

	reader, err := pcap.NewReader(pcapFilePath)
	if err != nil {
		log.Fatalf("Failed to open capture: %v", err)
	}
	defer reader.Close()

	records := make(chan pcap.Record, 64)
	go reader.ReadRecords(records)

	count := 0
	for rec := range records {
		key, payloadLen, err := capture.ParseFrame(rec.Data)
		if err != nil {
			fmt.Println("Parse error:", err)
			continue
		}
		count++
		fmt.Printf("[%s] %s:%d -> %s:%d proto=%d len=%d\n",
			rec.Timestamp.Format("15:04:05.000"),
			key.SrcIP, key.SrcPort,
			key.DstIP, key.DstPort,
			key.Protocol, payloadLen,
		)
	}
	fmt.Printf("%d frames\n", count)
}
