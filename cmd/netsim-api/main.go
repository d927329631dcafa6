package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/huyhayho2110/netsim/internal/config"
	"github.com/huyhayho2110/netsim/internal/query"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}

	// Initialize querier over the sweep's artifacts directory
	querier := query.NewArtifactQuerier(cfg.Experiment.ArtifactsDir)

	// Initialize router
	r := mux.NewRouter()

	// Create API handler with querier dependency
	apiHandler := &APIHandler{querier: querier}

	// Define API routes
	r.HandleFunc("/api/v1/runs", apiHandler.listRunsHandler).Methods("GET")
	r.HandleFunc("/api/v1/runs/{nodes}/flows", apiHandler.flowStatsHandler).Methods("GET")
	r.HandleFunc("/api/v1/runs/{nodes}/report", apiHandler.reportHandler).Methods("GET")

	// Start HTTP server
	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("API server exited.")
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	querier query.Querier
}

// listRunsHandler returns every run the artifacts directory holds.
func (h *APIHandler) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	runs, err := h.querier.ListRuns(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, runs)
}

// flowStatsHandler returns the raw flow table of one run.
func (h *APIHandler) flowStatsHandler(w http.ResponseWriter, r *http.Request) {
	nodes, err := nodeCountVar(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.querier.FlowStats(r.Context(), nodes)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load flows: %v", err), lookupStatus(err))
		return
	}
	h.writeJSON(w, snap)
}

// reportHandler returns the derived report of one run.
func (h *APIHandler) reportHandler(w http.ResponseWriter, r *http.Request) {
	nodes, err := nodeCountVar(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := h.querier.Report(r.Context(), nodes)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to build report: %v", err), lookupStatus(err))
		return
	}
	h.writeJSON(w, query.NewReportDoc(rep))
}

// nodeCountVar pulls the {nodes} path variable.
func nodeCountVar(r *http.Request) (int, error) {
	raw := mux.Vars(r)["nodes"]
	nodes, err := strconv.Atoi(raw)
	if err != nil || nodes < 1 {
		return 0, fmt.Errorf("invalid node count %q", raw)
	}
	return nodes, nil
}

// lookupStatus maps a querier error onto an HTTP status.
func lookupStatus(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}
