package api

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wricardo/gridpath/game/config"
	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/game/service"
	"github.com/wricardo/gridpath/game/session"
	"github.com/wricardo/gridpath/internal/metrics"
	"github.com/wricardo/gridpath/transport/websocket"
)

//go:embed static/index.html
var viewerHTML []byte

// Server represents the REST API server
type Server struct {
	service service.SearchService
	hub     *websocket.Hub
	router  *mux.Router
	players *players
}

// NewServer creates a new API server. hub may be nil, in which case nothing
// is streamed.
func NewServer(searchService service.SearchService, hub *websocket.Hub) *Server {
	s := &Server{
		service: searchService,
		hub:     hub,
		router:  mux.NewRouter(),
		players: newPlayers(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.metricsMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Search operations
	api.HandleFunc("/sessions/{id}/initialize", s.handleInitialize).Methods("POST")
	api.HandleFunc("/sessions/{id}/step", s.handleStep).Methods("POST")
	api.HandleFunc("/sessions/{id}/run", s.handleRun).Methods("POST")
	api.HandleFunc("/sessions/{id}/play", s.handleStartPlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/play", s.handleStopPlay).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/frame", s.handleGetFrame).Methods("GET")
	api.HandleFunc("/sessions/{id}/path", s.handleGetPath).Methods("GET")

	// Scenarios
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios", s.handleCreateScenario).Methods("POST")
	api.HandleFunc("/scenarios/{name}", s.handleGetScenario).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/", s.handleViewer).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so callers can mount extra handlers
func (s *Server) Router() *mux.Router {
	return s.router
}

// Close stops every running playback
func (s *Server) Close() {
	s.players.stopAll()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the middleware
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.ObserveRequest(route, r.Method, rec.status, time.Since(start))
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrScenarioNotFound),
		errors.Is(err, engine.ErrNoPathExists):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotInitialized),
		errors.Is(err, engine.ErrSearchNotSucceeded),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, engine.ErrOutOfBounds),
		errors.Is(err, engine.ErrEndpointBlocked),
		errors.Is(err, engine.ErrNoFreeCell),
		errors.Is(err, engine.ErrInvalidScenario),
		errors.Is(err, config.ErrInvalidScenario),
		errors.Is(err, session.ErrInvalidScenario):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// broadcastFrame pushes the session's current frame to websocket viewers
func (s *Server) broadcastFrame(r *http.Request, sessionID string) {
	if s.hub == nil {
		return
	}
	frame, err := s.service.GetFrame(r.Context(), sessionID)
	if err != nil {
		slog.Warn("failed to load frame for broadcast", "session", sessionID, "error", err)
		return
	}
	s.hub.BroadcastFrame(s.canonicalID(r, sessionID), *frame)
}

// canonicalID maps a case-insensitive session ID from the URL to the ID the
// session was created with, which is what websocket viewers subscribe to
func (s *Server) canonicalID(r *http.Request, sessionID string) string {
	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		return sessionID
	}
	return info.ID
}

// decodeOptional decodes a JSON body into v; an empty body leaves v as is
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scenario string `json:"scenario,omitempty"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateSession(r.Context(), strings.TrimSpace(req.Scenario))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := s.canonicalID(r, mux.Vars(r)["id"])

	s.players.stop(sessionID)
	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventDeleted, nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Search Handlers

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.InitializeRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.players.stop(sessionID)
	result, err := s.service.Initialize(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastFrame(r, sessionID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	req := struct {
		Steps int `json:"steps"`
	}{Steps: 1}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Step(r.Context(), sessionID, req.Steps)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	slog.Debug("step", "session", sessionID, "taken", result.StepsTaken,
		"requested", result.Requested, "status", result.Status)

	s.broadcastFrame(r, sessionID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Budget int `json:"budget"`
	}
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Run(r.Context(), sessionID, req.Budget)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	slog.Info("run", "session", sessionID, "taken", result.StepsTaken,
		"status", result.Status, "path_length", result.PathLength)

	s.broadcastFrame(r, sessionID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStartPlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req PlayRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IntervalMS < 0 || req.Budget < 0 {
		respondError(w, http.StatusBadRequest, "interval_ms and budget must not be negative")
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if info.Status == engine.StatusUninitialized {
		respondServiceError(w, fmt.Errorf("session %s: %w", sessionID, engine.ErrNotInitialized))
		return
	}

	// playback outlives the request
	interval := req.interval()
	s.players.start(info.ID, func(ctx context.Context) playResult {
		return s.play(ctx, info.ID, interval, req.Budget)
	})

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"session_id":  info.ID,
		"interval_ms": interval.Milliseconds(),
		"budget":      req.Budget,
		"message":     "Playback started",
	})
}

func (s *Server) handleStopPlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if !s.players.stop(sessionID) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no playback running for session %s", sessionID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Playback stopped",
	})
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	frame, err := s.service.GetFrame(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": frame.Status,
			"rows":   frame.Rows(),
		})
		return
	}

	respondJSON(w, http.StatusOK, frame)
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	path, err := s.service.GetPath(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, path)
}

// Scenario Handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	scenario, err := s.service.LoadScenario(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, scenario)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id,omitempty"`
		engine.Scenario
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Scenario name is required")
		return
	}

	id := req.ID
	if id == "" {
		id = scenarioSlug(req.Name)
	}

	scenario := req.Scenario
	if err := s.service.SaveScenario(r.Context(), id, &scenario); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Scenario saved successfully",
		"scenario_id": id,
	})
}

// scenarioSlug turns a display name into a file-safe id
func scenarioSlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	frame, err := s.service.GetFrame(r.Context(), info.ID)
	if err != nil {
		frame = nil
	}

	s.hub.ServeWS(w, r, info.ID, frame)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(viewerHTML)
}
