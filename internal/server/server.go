// Package server wires the dashboard's HTTP surface: static assets, the
// health check, the auth gateway routes and the calendar endpoints.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"

	"github.com/beekhof/dashboard/internal/auth"
	"github.com/beekhof/dashboard/internal/calendar"
	"github.com/beekhof/dashboard/internal/config"
	"github.com/beekhof/dashboard/internal/layout"
	"github.com/beekhof/dashboard/internal/log"
)

// upstreamTimeout bounds one Calendar API call so a hanging upstream
// cannot pin a request forever.
const upstreamTimeout = 15 * time.Second

//go:embed static
var embeddedStatic embed.FS

// Server serves the dashboard page and its JSON API.
type Server struct {
	cfg     *config.Config
	gateway *auth.Gateway
	grid    layout.Grid
	mux     *http.ServeMux

	// now is swappable in tests so the week window is deterministic.
	now func() time.Time

	// calendarOpts lets tests point the Calendar API client at a fake
	// endpoint.
	calendarOpts []option.ClientOption
}

// New constructs a Server with all routes registered.
func New(cfg *config.Config, gateway *auth.Gateway, opts ...option.ClientOption) *Server {
	s := &Server{
		cfg:          cfg,
		gateway:      gateway,
		grid:         layout.DefaultGrid(),
		mux:          http.NewServeMux(),
		now:          time.Now,
		calendarOpts: opts,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /auth/google", s.gateway.HandleLogin)
	s.mux.HandleFunc("GET /auth/google/callback", s.gateway.HandleCallback)
	s.mux.HandleFunc("GET /auth/logout", s.gateway.HandleLogout)
	s.mux.HandleFunc("GET /api/auth/status", s.gateway.HandleStatus)

	s.mux.HandleFunc("GET /api/calendar/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/calendar/view", s.handleView)
	s.mux.HandleFunc("GET /api/calendar/export.ics", s.handleExport)

	s.mux.HandleFunc("POST /api/chat", s.handleChat)

	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// weekEvents fetches the current week for the request's session. On any
// failure it writes the error response itself and returns ok=false.
func (s *Server) weekEvents(w http.ResponseWriter, r *http.Request) ([]calendar.Event, bool) {
	sess, found := s.gateway.Session(r)
	if !found || !sess.Authenticated() {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	httpClient, err := s.gateway.HTTPClient(ctx, sess)
	if err != nil {
		if errors.Is(err, calendar.ErrAuthRequired) {
			writeError(w, http.StatusUnauthorized, "authentication required")
		} else {
			log.Error("failed to build authenticated client", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch calendar events")
		}
		return nil, false
	}

	client, err := calendar.NewClient(ctx, httpClient, s.cfg.Location(), s.calendarOpts...)
	if err != nil {
		log.Error("failed to create calendar client", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch calendar events")
		return nil, false
	}

	events, err := client.FetchWeek(ctx, s.now())
	if err != nil {
		log.Error("failed to fetch calendar events", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch calendar events")
		return nil, false
	}

	return events, true
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, ok := s.weekEvents(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleView returns the server-rendered week grid as an HTML fragment.
// The client swaps it into the page wholesale, so a re-fetch replaces the
// previous blocks instead of accumulating them.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	events, ok := s.weekEvents(w, r)
	if !ok {
		return
	}

	fragment, err := s.grid.RenderWeek(events)
	if err != nil {
		log.Error("failed to render week grid", err)
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(fragment)); err != nil {
		log.Error("failed to write calendar view", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	events, ok := s.weekEvents(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="week.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(calendar.ExportICS(events))); err != nil {
		log.Error("failed to write ICS export", err)
	}
}

// handleChat accepts a chat message and currently only logs it. Empty or
// whitespace-only input is dropped without logging.
// TODO: message history and backend delivery once a contract exists.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(body.Message)
	if message == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	log.Info("chat message received", "message", message)
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// staticFileServer serves the embedded dashboard assets. API paths never
// fall through to it; a missing handler should 404, not return HTML.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
