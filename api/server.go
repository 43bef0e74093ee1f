package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/enginebay/garage/garage/bay"
	"github.com/enginebay/garage/garage/car"
	"github.com/enginebay/garage/garage/config"
	"github.com/enginebay/garage/garage/engine"
	"github.com/enginebay/garage/garage/service"
	"github.com/enginebay/garage/telemetry"
	"github.com/enginebay/garage/transport/websocket"
	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	service service.GarageService
	hub     *websocket.Hub
	metrics *telemetry.Metrics
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(garageService service.GarageService, hub *websocket.Hub, metrics *telemetry.Metrics) *Server {
	s := &Server{
		service: garageService,
		hub:     hub,
		metrics: metrics,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// API routes with clean REST patterns
	api := s.router.PathPrefix("/api").Subrouter()

	// Bay management
	api.HandleFunc("/bays", s.handleCreateBay).Methods("POST")
	api.HandleFunc("/bays", s.handleListBays).Methods("GET")
	api.HandleFunc("/bays/{id}", s.handleGetBay).Methods("GET")
	api.HandleFunc("/bays/{id}", s.handleDeleteBay).Methods("DELETE")

	// Car operations
	api.HandleFunc("/bays/{id}/start", s.handleStartCar).Methods("POST")
	api.HandleFunc("/bays/{id}/stop", s.handleStopCar).Methods("POST")
	api.HandleFunc("/bays/{id}/engine", s.handleSwapEngine).Methods("POST")
	api.HandleFunc("/bays/{id}/journal", s.handleGetJournal).Methods("GET")

	// Engine catalog
	api.HandleFunc("/engines", s.handleListEngines).Methods("GET")
	api.HandleFunc("/engines", s.handleCreateEngineConfig).Methods("POST")
	api.HandleFunc("/engines/{name}", s.handleGetEngineConfig).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws/{id}", s.handleWebSocket)

	// Prometheus metrics
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	// Static files (if needed)
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps service errors to HTTP status codes. Errors that
// wrap a known sentinel keep their mapping through the wrap chain.
func statusForError(err error) int {
	switch {
	case errors.Is(err, bay.ErrBayNotFound), errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, bay.ErrBayAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, bay.ErrInvalidBayID),
		errors.Is(err, car.ErrNilEngine),
		errors.Is(err, engine.ErrUnknownEngine),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Bay Handlers

func (s *Server) handleCreateBay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BayID      string `json:"bay_id,omitempty"`
		EngineKind string `json:"engine_kind,omitempty"`
		Engine     string `json:"engine,omitempty"` // Deprecated, use engine_kind
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	// Support both new and old parameter names, but prefer engine_kind
	engineKind := req.EngineKind
	if engineKind == "" && req.Engine != "" {
		engineKind = req.Engine
	}

	bayInfo, err := s.service.CreateBay(r.Context(), req.BayID, engineKind)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, bayInfo)
}

func (s *Server) handleListBays(w http.ResponseWriter, r *http.Request) {
	bays, err := s.service.ListBays(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of bays to return

	// Set defaults
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	// Sort bays
	sort.Slice(bays, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = bays[i].CreatedAt, bays[j].CreatedAt
		} else { // "accessed"
			ti, tj = bays[i].LastAccessedAt, bays[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	// Apply limit if specified; total reflects the count before limiting
	total := len(bays)
	limit := len(bays)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(bays) {
			limit = l
		}
	}
	bays = bays[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(bays),
		"total": total,
		"bays":  bays,
		"sort":  sortBy,
		"order": order,
	})
}

func (s *Server) handleGetBay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]

	bayInfo, err := s.service.GetBay(r.Context(), bayID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, bayInfo)
}

func (s *Server) handleDeleteBay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]

	err := s.service.DeleteBay(r.Context(), bayID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// Notify any clients still watching this bay
	if s.hub != nil {
		s.hub.BroadcastEvent(bayID, "bay_deleted", nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Bay %s deleted", bayID),
	})
}

// Car Operation Handlers

func (s *Server) handleStartCar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]

	result, err := s.service.StartCar(r.Context(), bayID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// Broadcast to WebSocket clients
	if s.hub != nil {
		s.hub.BroadcastToBay(bayID, "car_started", result.Lines, result.EngineType)
	}

	// Compact server log for observability
	fmt.Printf("[START] bay=%s engine=%q\n", bayID, result.EngineType)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStopCar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]

	result, err := s.service.StopCar(r.Context(), bayID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// Broadcast to WebSocket clients
	if s.hub != nil {
		s.hub.BroadcastToBay(bayID, "car_stopped", result.Lines, result.EngineType)
	}

	// Compact server log for observability
	fmt.Printf("[STOP] bay=%s engine=%q\n", bayID, result.EngineType)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSwapEngine(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]

	var req struct {
		EngineKind string `json:"engine_kind,omitempty"`
		Engine     string `json:"engine,omitempty"` // Deprecated, use engine_kind
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	engineKind := req.EngineKind
	if engineKind == "" && req.Engine != "" {
		engineKind = req.Engine
	}
	if engineKind == "" {
		respondError(w, http.StatusBadRequest, "engine_kind is required")
		return
	}

	result, err := s.service.SwapEngine(r.Context(), bayID, engineKind)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// Broadcast to WebSocket clients
	if s.hub != nil {
		s.hub.BroadcastToBay(bayID, "engine_swapped", []string{result.Line}, result.NewEngine)
	}

	// Compact server log for observability
	fmt.Printf("[SWAP] bay=%s %q -> %q swaps=%d\n", bayID, result.OldEngine, result.NewEngine, result.Swaps)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetJournal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]

	// Parse query parameters
	opts := service.JournalOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	journal, err := s.service.GetJournal(r.Context(), bayID, opts)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, journal)
}

// Engine Catalog Handlers

func (s *Server) handleListEngines(w http.ResponseWriter, r *http.Request) {
	engines, err := s.service.ListEngines(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, engines)
}

func (s *Server) handleGetEngineConfig(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	configName := vars["name"]

	// Remove a trailing extension if present
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		configName = strings.TrimSuffix(configName, ext)
	}

	engineConfig, err := s.service.LoadEngineConfig(r.Context(), configName)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, engineConfig)
}

func (s *Server) handleCreateEngineConfig(w http.ResponseWriter, r *http.Request) {
	// Decode directly into engine.EngineConfig which has the correct structure
	var engineConfig engine.EngineConfig

	if err := json.NewDecoder(r.Body).Decode(&engineConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate required fields
	if engineConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Engine name is required")
		return
	}

	// Save configuration
	if err := s.service.SaveEngineConfig(r.Context(), engineConfig.Name, &engineConfig); err != nil {
		respondError(w, statusForError(err), fmt.Sprintf("Failed to save engine config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Engine configuration saved successfully",
		"engine_id": engineConfig.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bayID := vars["id"]
	if bayID == "" {
		http.Error(w, "bay ID required", http.StatusBadRequest)
		return
	}

	// Verify bay exists
	_, err := s.service.GetBay(r.Context(), bayID)
	if err != nil {
		http.Error(w, "Unknown bay", http.StatusNotFound)
		return
	}

	// Upgrade to WebSocket
	s.hub.ServeWS(w, r, bayID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
