// Package main provides the simulation server: it keeps the scenario
// configuration loaded, runs it on demand over HTTP and streams
// repetition progress to websocket subscribers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"tokensim/internal/config"
	"tokensim/internal/montecarlo"
	"tokensim/internal/observability"
	"tokensim/internal/orchestrator"
	"tokensim/internal/storage"
	chstore "tokensim/internal/storage/clickhouse"
	"tokensim/internal/storage/memory"
	"tokensim/internal/storage/migrations"
	pgstore "tokensim/internal/storage/postgres"
	"tokensim/internal/stream"
)

// Server holds the loaded configuration and run state.
type Server struct {
	file    *config.File
	stores  *serverStores
	hub     *stream.Hub
	logger  *log.Logger
	verbose bool

	// State
	mu         sync.Mutex
	started    time.Time
	lastRun    time.Time
	running    bool
	runsTotal  int
	runsFailed int
	lastRunIDs []string
}

// serverStores holds the storage implementations.
type serverStores struct {
	runs       storage.RunStore
	aggregates storage.AggregateStore
	points     storage.PointStore
}

func main() {
	loadEnvFile()

	configPath := flag.String("config", "", "Scenario configuration file (YAML)")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string; empty skips raw point persistence")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	verbose := flag.Bool("verbose", false, "Enable progress logging")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	file, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Printf("Loaded %d scenario(s) from %s", len(file.Scenarios), *configPath)

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := &Server{
		file:    file,
		stores:  stores,
		hub:     stream.NewHub(&stream.HubConfig{Verbose: *verbose}),
		logger:  logger,
		verbose: *verbose,
		started: time.Now(),
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx, *addr)
	done <- err
	cancel()

	if err != nil && err != context.Canceled && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// Run serves HTTP until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/run", s.handleRun(ctx))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Listening on %s", addr)
	return srv.ListenAndServe()
}

// runEvent is the websocket message sent when a scenario run finishes.
type runEvent struct {
	Type       string `json:"type"`
	Scenario   string `json:"scenario"`
	RunID      string `json:"run_id"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
}

// handleRun starts a run of the loaded configuration. Only one run is
// in flight at a time; repetition progress goes out over /ws.
func (s *Server) handleRun(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		s.mu.Lock()
		if s.running {
			s.mu.Unlock()
			http.Error(w, "a run is already in progress", http.StatusConflict)
			return
		}
		s.running = true
		s.mu.Unlock()

		go s.runScenarios(ctx)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}
}

// runScenarios executes the configuration and broadcasts the outcome.
func (s *Server) runScenarios(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastRun = time.Now()
		s.mu.Unlock()
	}()

	s.logger.Println("Starting run...")
	start := time.Now()

	orch, err := orchestrator.New(orchestrator.Options{
		File:           s.file,
		RunStore:       s.stores.runs,
		AggregateStore: s.stores.aggregates,
		PointStore:     s.stores.points,
		Verbose:        s.verbose,
		OnProgress: func(p montecarlo.Progress) {
			s.hub.Broadcast(p)
		},
	})
	if err != nil {
		s.logger.Printf("Run setup error: %v", err)
		s.recordFailure()
		return
	}

	res, err := orch.Run(ctx)
	if err != nil {
		s.logger.Printf("Run error: %v", err)
		s.recordFailure()
		return
	}

	runIDs := make([]string, 0, len(res.Runs))
	for _, run := range res.Runs {
		runIDs = append(runIDs, run.Record.RunID)
		s.hub.Broadcast(runEvent{
			Type:       "run_complete",
			Scenario:   run.Record.Scenario,
			RunID:      run.Record.RunID,
			Successful: run.Result.Successful,
			Failed:     run.Result.Failed,
		})
	}

	s.mu.Lock()
	s.runsTotal++
	s.lastRunIDs = runIDs
	s.mu.Unlock()

	s.logger.Printf("Run completed in %v: %d scenario(s) stored", time.Since(start), len(res.Runs))
}

func (s *Server) recordFailure() {
	s.mu.Lock()
	s.runsTotal++
	s.runsFailed++
	s.mu.Unlock()
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Scenarios   int       `json:"scenarios"`
	Subscribers int       `json:"subscribers"`
	Running     bool      `json:"running"`
	RunsTotal   int       `json:"runs_total"`
	RunsFailed  int       `json:"runs_failed"`
	LastRun     time.Time `json:"last_run,omitempty"`
	LastRunIDs  []string  `json:"last_run_ids,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.started).String(),
		Scenarios:   len(s.file.Scenarios),
		Subscribers: s.hub.ClientCount(),
		Running:     s.running,
		RunsTotal:   s.runsTotal,
		RunsFailed:  s.runsFailed,
		LastRun:     s.lastRun,
		LastRunIDs:  s.lastRunIDs,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// createStores connects to the databases and applies migrations, or
// returns in-memory stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*serverStores, func(), error) {
	if useMemory {
		stores := &serverStores{
			runs:       memory.NewRunStore(),
			aggregates: memory.NewAggregateStore(),
			points:     memory.NewPointStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	stores := &serverStores{
		runs:       pgstore.NewRunStore(pool),
		aggregates: pgstore.NewAggregateStore(pool),
	}

	if clickhouseDSN == "" {
		return stores, pool.Close, nil
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}
	stores.points = chstore.NewPointStore(chConn)

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
