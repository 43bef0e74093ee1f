// Command garage starts the garage bay server.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, /metrics, and an /mcp HTTP endpoint
//  2. "demo" – drives one car through the start/stop/swap sequence and prints each emitted line
//  3. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the engine catalog and data directories, the bay
// store backend, maintenance scheduling, debug logging, version output, and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/enginebay/garage/api"
	"github.com/enginebay/garage/garage/bay"
	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/config"
	"github.com/enginebay/garage/garage/engine"
	"github.com/enginebay/garage/garage/maintenance"
	"github.com/enginebay/garage/garage/service"
	"github.com/enginebay/garage/telemetry"
	"github.com/enginebay/garage/transport/mcp"
	"github.com/enginebay/garage/transport/websocket"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Garage Bay Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port          = flag.Int("port", 8080, "HTTP server port")
	host          = flag.String("host", "localhost", "HTTP server host")
	configDir     = flag.String("config-dir", getConfigDirDefault(), "Directory containing engine definitions")
	dataDir       = flag.String("data-dir", getDataDirDefault(), "Directory for file-based bay storage")
	storeBackend  = flag.String("store", "file", "Bay store backend: file, sqlite, or none")
	dbPath        = flag.String("db", "garage.db", "SQLite database path (used with -store sqlite)")
	pruneSchedule = flag.String("maintenance-schedule", getScheduleDefault(), "Cron expression for maintenance pruning (empty disables)")
	watchConfigs  = flag.Bool("watch-configs", true, "Reload the engine catalog when definition files change")
	debug         = flag.Bool("debug", false, "Enable debug logging")
	version       = flag.Bool("version", false, "Show version information")
	ngrokEnabled  = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth     = flag.String("ngrok-authtoken", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain   = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigDirDefault returns the default engine catalog directory.
// It first honors the GARAGE_CONFIG_DIR environment variable, then falls back to "engines".
func getConfigDirDefault() string {
	if dir := os.Getenv("GARAGE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "engines"
}

// getDataDirDefault returns the default directory for file-based bay storage.
// It first honors the GARAGE_DATA_DIR environment variable, then falls back to "bays".
func getDataDirDefault() string {
	if dir := os.Getenv("GARAGE_DATA_DIR"); dir != "" {
		return dir
	}
	return "bays"
}

// getScheduleDefault returns the default maintenance cron expression.
// It first honors the GARAGE_MAINTENANCE_SCHEDULE environment variable.
func getScheduleDefault() string {
	if expr := os.Getenv("GARAGE_MAINTENANCE_SCHEDULE"); expr != "" {
		return expr
	}
	return "0 3 * * *"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http                 Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  demo [initial [replacement]] Drive one car: start, stop, swap engines, start, stop\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp [api-url]          Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio                    Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp                          Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                           # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090                # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store sqlite -db garage.db  # Persist bays to SQLite\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s demo                      # Print the petrol-to-electric demo sequence\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s demo hybrid petrol        # Demo with chosen engine kinds\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                 # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Pick up .env overrides when one is present
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	// Demo mode needs no directories, stores, or servers
	if mode == "demo" {
		initialKind := engine.KindPetrol
		replacementKind := engine.KindElectric
		if len(args) > 1 {
			initialKind = args[1]
		}
		if len(args) > 2 {
			replacementKind = args[2]
		}

		if err := runDemo(os.Stdout, initialKind, replacementKind); err != nil {
			log.Fatalf("Demo failed: %v", err)
		}
		return
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	svcs, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		apiURL := ""
		if len(args) > 1 {
			apiURL = args[1]
		}
		runStdioMCPWithInternalServer(svcs, apiURL)
		return

	case "server", "http":
		runHTTPServer(svcs)

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default), 'demo', or 'stdio-mcp'", mode)
	}
}

// runDemo drives one car through the canonical sequence: start, stop, swap
// to the replacement engine, start, stop. Every emitted line goes to w in
// emission order.
func runDemo(w io.Writer, initialKind, replacementKind string) error {
	initial, err := engine.Build(initialKind)
	if err != nil {
		return fmt.Errorf("initial engine: %w", err)
	}

	c, err := car.NewCar(initial)
	if err != nil {
		return err
	}

	for _, line := range c.Start() {
		fmt.Fprintln(w, line)
	}
	for _, line := range c.Stop() {
		fmt.Fprintln(w, line)
	}

	replacement, err := engine.Build(replacementKind)
	if err != nil {
		return fmt.Errorf("replacement engine: %w", err)
	}

	swapLine, err := c.SetEngine(replacement)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, swapLine)

	for _, line := range c.Start() {
		fmt.Fprintln(w, line)
	}
	for _, line := range c.Stop() {
		fmt.Fprintln(w, line)
	}

	return nil
}

// services bundles everything main wires together so the shutdown path can
// reach all of it.
type services struct {
	garage     service.GarageService
	bays       *bay.Manager
	catalog    *config.Manager
	metrics    *telemetry.Metrics
	watcher    *config.Watcher
	scheduler  *maintenance.Scheduler
	closeStore func() error
}

// initializeServices wires the catalog, bay store, metrics, garage service,
// and maintenance scheduler together.
func initializeServices() (*services, error) {
	// Catalog first; engine resolution and bay persistence both need it
	catalogManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog manager: %w", err)
	}

	// Rebuilds engines from their stored identifier: built-in kinds first,
	// then catalog definitions. Mirrors how the service resolves engines.
	resolver := func(engineKind string) (engine.Engine, error) {
		if engine.Registered(engineKind) {
			return engine.Build(engineKind)
		}
		cfg, err := catalogManager.LoadConfig(engineKind)
		if err != nil {
			return nil, err
		}
		return engine.FromConfig(cfg)
	}

	var (
		bayManager *bay.Manager
		closeStore = func() error { return nil }
		trimmer    maintenance.JournalTrimmer
	)

	switch *storeBackend {
	case "file":
		persistence, err := bay.NewFilePersistence(*dataDir, resolver)
		if err != nil {
			return nil, fmt.Errorf("failed to create file store: %w", err)
		}
		bayManager = bay.NewManagerWithPersistence(persistence)

	case "sqlite":
		store, err := bay.NewSQLiteStore(*dbPath, resolver)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		bayManager = bay.NewManagerWithPersistence(store)
		closeStore = store.Close
		trimmer = store

	case "none":
		bayManager = bay.NewManager()

	default:
		return nil, fmt.Errorf("unknown store backend %q: use file, sqlite, or none", *storeBackend)
	}

	// Load persisted bays on startup
	if err := bayManager.LoadPersistedBays(); err != nil {
		log.Printf("Warning: Failed to load persisted bays: %v", err)
	}

	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
		Enabled:   true,
		Namespace: "garage",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	garageService := service.NewGarageServiceWithMetrics(bayManager, catalogManager, metrics)

	svcs := &services{
		garage:     garageService,
		bays:       bayManager,
		catalog:    catalogManager,
		metrics:    metrics,
		closeStore: closeStore,
	}

	if *pruneSchedule != "" {
		cfg := maintenance.DefaultConfig()
		cfg.PruneSchedule = *pruneSchedule
		if trimmer == nil {
			// Stored-journal trimming only works against the SQLite store
			cfg.JournalKeep = 0
		}
		pruner := maintenance.NewPrunerWithMetrics(bayManager, trimmer, cfg, metrics)
		svcs.scheduler = maintenance.NewScheduler(pruner)
	}

	if *watchConfigs {
		watcher, err := config.NewWatcher(*configDir, 500*time.Millisecond)
		if err != nil {
			log.Printf("Warning: catalog watching disabled: %v", err)
		} else {
			svcs.watcher = watcher
		}
	}

	return svcs, nil
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(svcs *services) {
	hub := websocket.NewHub()
	go hub.Run()

	apiServer := api.NewServer(svcs.garage, hub, svcs.metrics)

	addr := fmt.Sprintf("%s:%d", *host, *port)

	// The MCP endpoint proxies back to our own REST API
	baseURL := fmt.Sprintf("http://%s", addr)
	mcpClient := mcp.NewClient(baseURL)

	// API at the root, MCP mounted next to it
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws/{bay_id}", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)
		log.Printf("Metrics: http://%s/metrics", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Watch the catalog for definition changes
	if svcs.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := svcs.watcher.Watch(ctx, func() error {
				return svcs.catalog.RefreshCache()
			})
			if err != nil {
				log.Printf("Catalog watcher stopped: %v", err)
			}
		}()
	}

	// Start scheduled maintenance
	if svcs.scheduler != nil {
		if err := svcs.scheduler.Start(ctx); err != nil {
			log.Printf("Warning: maintenance scheduler failed to start: %v", err)
		}
	}

	// The flag wins, but NGROK_ENABLED in the environment also turns it on
	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()

			authToken := *ngrokAuth
			if authToken == "" {
				authToken = os.Getenv("NGROK_AUTHTOKEN")
			}

			if authToken == "" {
				log.Println("WARNING: Ngrok enabled but no auth token provided (use -ngrok-authtoken or NGROK_AUTHTOKEN env var)")
				return
			}

			log.Println("Starting ngrok tunnel...")

			domain := *ngrokDomain
			if domain == "" {
				domain = os.Getenv("NGROK_DOMAIN")
			}

			var tunnel ngrokConfig.Tunnel
			if domain != "" {
				tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
				log.Printf("Using custom ngrok domain: %s", domain)
			} else {
				tunnel = ngrokConfig.HTTPEndpoint()
			}

			tun, err := ngrok.Listen(ctx,
				tunnel,
				ngrok.WithAuthtoken(authToken),
			)
			if err != nil {
				log.Printf("Failed to start ngrok tunnel: %v", err)
				return
			}
			defer func() {
				if err := tun.Close(); err != nil {
					log.Printf("Failed to close ngrok tunnel: %v", err)
				}
			}()

			ngrokURL := tun.URL()
			log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
			log.Printf("  REST API (ngrok): %s/api", ngrokURL)
			log.Printf("  WebSocket (ngrok): %s/ws/{bay_id}", ngrokURL)
			log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

			// Same router as the local listener, served through the tunnel
			if err := http.Serve(tun, mainRouter); err != nil && err != http.ErrServerClosed {
				log.Printf("Ngrok server error: %v", err)
			}
			log.Println("Ngrok tunnel closed")
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Persist every bay before exit
	if err := svcs.bays.SaveAll(); err != nil {
		log.Printf("Warning: Failed to save bays: %v", err)
	}

	if svcs.scheduler != nil {
		svcs.scheduler.Stop()
	}

	if svcs.watcher != nil {
		if err := svcs.watcher.Stop(); err != nil {
			log.Printf("Warning: Failed to stop catalog watcher: %v", err)
		}
	}

	if err := svcs.closeStore(); err != nil {
		log.Printf("Warning: Failed to close bay store: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// With an explicit apiURL it targets that API directly. Otherwise it tries to
// reuse an external API at http://localhost:8080; if unavailable, it starts a
// minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(svcs *services, apiURL string) {
	var baseURL string

	if apiURL != "" {
		log.Printf("Using provided API server at %s for MCP", apiURL)
		baseURL = apiURL
	} else {
		// Prefer an already-running API on the default port
		externalURL := "http://localhost:8080"
		log.Printf("Checking for external API server at %s...", externalURL)

		testClient := &http.Client{Timeout: 2 * time.Second}
		resp, err := testClient.Get(externalURL + "/api/health")
		if err == nil && resp.StatusCode < 500 {
			resp.Body.Close()
			log.Printf("External API server found at %s, using it for MCP", externalURL)
			baseURL = externalURL
		} else {
			log.Printf("No external API server found, starting internal HTTP server")

			// Bind a loopback listener on whatever port is free
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				log.Fatalf("Failed to get available port: %v", err)
			}

			internalPort := listener.Addr().(*net.TCPAddr).Port
			internalAddr := fmt.Sprintf("127.0.0.1:%d", internalPort)

			log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

			hub := websocket.NewHub()
			go hub.Run()

			apiServer := api.NewServer(svcs.garage, hub, svcs.metrics)

			httpServer := &http.Server{
				Handler: apiServer,
			}

			go func() {
				if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
					log.Printf("Internal HTTP server error: %v", err)
				}
			}()

			// Give the listener a beat before the first proxy call
			time.Sleep(100 * time.Millisecond)

			baseURL = fmt.Sprintf("http://%s", internalAddr)
		}
	}

	mcpClient := mcp.NewClient(baseURL)

	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatalf("MCP stdio server error: %v", err)
	}
}
