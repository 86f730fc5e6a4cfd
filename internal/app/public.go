package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inkwell/api/internal/blob"
	"inkwell/api/internal/metrics"
	"inkwell/api/internal/sitemap"
)

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// PublicServer serves the read-only content the viewer fetches: the sitemap
// document and raw post bodies. It also carries the health and metrics routes.
type PublicServer struct {
	blobs      blob.Store
	corsOrigin string
	checks     map[string]ReadinessCheck
	log        zerolog.Logger
}

func NewPublicServer(blobs blob.Store, corsOrigin string, logger zerolog.Logger) *PublicServer {
	return &PublicServer{
		blobs:      blobs,
		corsOrigin: corsOrigin,
		checks:     map[string]ReadinessCheck{"storage": blobs.Ping},
		log:        logger,
	}
}

// AddCheck registers an additional dependency for /readyz.
func (s *PublicServer) AddCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

func (s *PublicServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", s.handle)
	return mux
}

func (s *PublicServer) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	switch {
	case r.URL.Path == "/healthz":
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case r.URL.Path == "/readyz":
		s.handleReady(w, r)
	case r.URL.Path == "/"+sitemap.FileName:
		s.serveBlob(w, r, sitemap.FileName, "application/json")
	case strings.HasPrefix(r.URL.Path, "/"+sitemap.PostsPrefix):
		filename := strings.TrimPrefix(r.URL.Path, "/"+sitemap.PostsPrefix)
		if filename == "" || strings.Contains(filename, "/") {
			w.Header().Set("Content-Type", "application/json")
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		s.serveBlob(w, r, sitemap.BodyKey(filename), "text/markdown; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/json")
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (s *PublicServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *PublicServer) serveBlob(w http.ResponseWriter, r *http.Request, key, contentType string) {
	data, err := s.blobs.Get(r.Context(), key)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		if errors.Is(err, blob.ErrNotExist) || errors.Is(err, blob.ErrInvalidKey) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		s.log.Error().Err(err).Str("key", key).Msg("read public content")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(data)
}
