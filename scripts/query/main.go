package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	mode := flag.String("mode", "api", "Query mode: 'api' to query via HTTP API, 'direct' to query ClickHouse directly.")
	nodes := flag.Int("nodes", 0, "Node count of the run to query (0 queries every run).")
	apiBase := flag.String("api", "http://localhost:8080", "Base URL of the netsim-api server.")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*apiBase, *nodes)
	case "direct":
		directQueryClickHouse(*nodes)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

// --- API Query Logic ---
func queryViaAPI(base string, nodes int) {
	apiURL := base + "/api/v1/runs"
	if nodes > 0 {
		apiURL = fmt.Sprintf("%s/api/v1/runs/%d/report", base, nodes)
	}

	log.Printf("Sending request to %s", apiURL)

	resp, err := http.Get(apiURL)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	var prettyJSON bytes.Buffer
	err = json.Indent(&prettyJSON, respBody, "", "  ")
	if err != nil {
		log.Printf("Could not prettify JSON, printing raw response:")
		fmt.Println(string(respBody))
		return
	}

	log.Println("---")
	fmt.Println(prettyJSON.String())
}

// --- Direct ClickHouse Query Logic ---
func directQueryClickHouse(nodes int) {
	connOpts := clickhouse.Options{
		Addr: []string{"localhost:9000"},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			RunID,
			NodeCount,
			COUNT(*) AS FlowCount,
			SUM(TxPackets) AS TotalTxPackets,
			SUM(RxPackets) AS TotalRxPackets,
			SUM(LostPackets) AS TotalLostPackets
		FROM flow_stats
`)

	args := []interface{}{}
	if nodes > 0 {
		queryBuilder.WriteString(" WHERE NodeCount = ?")
		args = append(args, uint16(nodes))
	}

	queryBuilder.WriteString("\n\t\tGROUP BY RunID, NodeCount\n\t\tORDER BY NodeCount\n")

	conn, err := clickhouse.Open(&connOpts)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	defer conn.Close()

	log.Println("Successfully connected to ClickHouse.")

	rows, err := conn.Query(context.Background(), queryBuilder.String(), args...)
	if err != nil {
		log.Fatalf("Error executing query: %v", err)
	}
	defer rows.Close()

	log.Println("--- Aggregated Query Results (Direct) ---")

	var foundResult bool
	for rows.Next() {
		foundResult = true
		var (
			runID       string
			nodeCount   uint16
			flowCount   uint64
			txPackets   uint64
			rxPackets   uint64
			lostPackets uint64
		)

		if err := rows.Scan(&runID, &nodeCount, &flowCount, &txPackets, &rxPackets, &lostPackets); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		fmt.Printf("Run: %s (%d nodes)\n", runID, nodeCount)
		fmt.Printf("  FlowCount: %d\n", flowCount)
		fmt.Printf("  TxPackets: %d\n", txPackets)
		fmt.Printf("  RxPackets: %d\n", rxPackets)
		fmt.Printf("  LostPackets: %d\n", lostPackets)
		fmt.Println("---------------------")
	}

	if !foundResult {
		log.Println("No data found for the specified criteria.")
	}

	if err := rows.Err(); err != nil {
		log.Printf("An error occurred during row iteration: %v", err)
	}
}
