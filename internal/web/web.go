// Package web serves the congress schedule, its grid layout and the
// surrounding site content over HTTP.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/config"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/congress"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/refresh"
)

// Congress is the content the API exposes.
type Congress interface {
	Schedule(ctx context.Context, token string) (model.Congress, error)
	Section(ctx context.Context, slug string, preview bool, token string) ([]model.Session, error)
	Persons(ctx context.Context, q congress.ListQuery) ([]model.Person, error)
	Person(ctx context.Context, id string) (model.Person, error)
	Roles(ctx context.Context, q congress.ListQuery) ([]model.Role, error)
	Role(ctx context.Context, id string) (model.Role, error)
	SiteData(ctx context.Context) (model.SiteData, error)
}

// Snapshots provides the periodically rebuilt schedule.
type Snapshots interface {
	Snapshot() (refresh.Snapshot, bool)
	RunOnce(ctx context.Context) (refresh.Snapshot, error)
}

// Server provides the HTTP API.
type Server struct {
	cfg   *config.Config
	svc   Congress
	snaps Snapshots
	mux   *http.ServeMux

	// In-memory cache for /api/site-data; globals and menus change rarely
	// and are requested on every page load.
	siteMu    sync.RWMutex
	siteCache *siteDataCache
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, svc Congress, snaps Snapshots) *Server {
	s := &Server{
		cfg:   cfg,
		svc:   svc,
		snaps: snaps,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server, wrapped in
// request logging and, when configured, basic auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestIDMiddleware(h)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Congress", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves the API on cfg.Listen until ctx is cancelled, then shuts the
// server down gracefully.
func Run(ctx context.Context, cfg *config.Config, svc Congress, snaps Snapshots) error {
	s := NewServer(cfg, svc, snaps)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/schedule/grid", s.handleGrid)
	s.mux.HandleFunc("GET /api/schedule.ics", s.handleICS)
	s.mux.HandleFunc("GET /api/program/section", s.handleSection)

	s.mux.HandleFunc("GET /api/persons", s.handlePersons)
	s.mux.HandleFunc("GET /api/persons/{id}", s.handlePerson)
	s.mux.HandleFunc("GET /api/roles", s.handleRoles)
	s.mux.HandleFunc("GET /api/roles/{id}", s.handleRole)

	s.mux.HandleFunc("GET /api/site-data", s.handleSiteData)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured programme screenshot from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil || s.cfg.Capture.Output == "" {
		http.NotFound(w, r)
		return
	}
	// http.ServeFile answers 404 for a missing file and handles
	// conditional requests itself.
	http.ServeFile(w, r, s.cfg.Capture.Output)
}
