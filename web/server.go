package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lai/logistics/dashboard/service"
)

const sessionCookie = "dashboard_session"

const recentLookups = 10

// LookupLister lists recent tracking cycles for the history card.
type LookupLister interface {
	Recent(ctx context.Context, limit int) ([]service.Lookup, error)
}

// Options wires the optional parts of the server.
type Options struct {
	Sessions *service.Sessions
	Hub      *service.Hub     // live updates; nil disables the socket
	History  LookupLister     // nil hides the recent lookups card
	Proxy    http.Handler     // backend proxy under /api/; nil disables it
	Health   func(ctx context.Context) error
	Location *time.Location
}

// Server serves the dashboard page and its form actions.
type Server struct {
	sessions *service.Sessions
	hub      *service.Hub
	history  LookupLister
	proxy    http.Handler
	health   func(ctx context.Context) error
	loc      *time.Location
	now      func() time.Time
}

// NewServer creates a server from opts.
func NewServer(opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		sessions: opts.Sessions,
		hub:      opts.Hub,
		history:  opts.History,
		proxy:    opts.Proxy,
		health:   opts.Health,
		loc:      loc,
		now:      time.Now,
	}
}

// Routes returns the HTTP handler with request logging applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.hub != nil {
		mux.HandleFunc("GET /ws/track/{containerID}", s.hub.ServeWS)
	}
	if s.proxy != nil {
		mux.Handle("/api/", s.proxy)
	}
	return withRequestLogging(mux)
}

// dashboard returns the session's controller. A new session is mounted: its
// KPIs and shipments are fetched once before first use.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) *service.Dashboard {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if dash, ok := s.sessions.Get(c.Value); ok {
			return dash
		}
	}

	id, dash := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Info("dashboard mounted", "session", id, "request_id", service.RequestIDFrom(r.Context()))

	dash.RefreshDashboardData(r.Context())
	return dash
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	dash := s.dashboard(w, r)
	view := NewPageView(dash.Snapshot(), s.loc, s.now(), s.hub != nil)

	if s.history != nil {
		lookups, err := s.history.Recent(r.Context(), recentLookups)
		if err != nil {
			slog.Warn("load recent lookups failed", "error", err)
		}
		view.Lookups = NewLookupViews(lookups, s.now())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Page(view).Render(r.Context(), w); err != nil {
		slog.Error("render page failed", "error", err)
	}
}

// handleFetch runs a tracking cycle for the submitted container id. The cycle
// is not cancelled when the browser goes away.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	dash := s.dashboard(w, r)
	if _, ok := r.PostForm["container_id"]; ok {
		dash.SetContainerID(r.PostForm.Get("container_id"))
	}

	dash.FetchTrackingCycle(context.WithoutCancel(r.Context()))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	dash := s.dashboard(w, r)
	dash.RefreshDashboardData(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	dash := s.dashboard(w, r)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dash.Snapshot()); err != nil {
		slog.Error("encode state failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			service.WriteError(w, http.StatusServiceUnavailable, "database unhealthy")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
