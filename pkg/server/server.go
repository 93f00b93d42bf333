// Package server exposes the cached data and the aggregation views as a
// read-only JSON API, plus a refresh trigger.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/statweer/youtube-mate/internal/model"
	"github.com/statweer/youtube-mate/internal/repo"
	"github.com/statweer/youtube-mate/internal/scheduler"
	"github.com/statweer/youtube-mate/pkg/insight"
)

// Refresher triggers one refresh cycle. Implemented by *scheduler.Scheduler.
type Refresher interface {
	RefreshOnce(ctx context.Context) (*scheduler.RefreshResult, error)
}

// Server provides the HTTP API.
type Server struct {
	repo          *repo.Repository
	refresher     Refresher
	excludeAuthor string
	port          int
}

// New creates a new HTTP server. excludeAuthor empty means "the cached
// channel's own handle".
func New(r *repo.Repository, refresher Refresher, excludeAuthor string, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		repo:          r,
		refresher:     refresher,
		excludeAuthor: excludeAuthor,
		port:          port,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/channel", s.handleChannel)
	mux.HandleFunc("/api/v1/videos", s.handleVideos)
	mux.HandleFunc("/api/v1/comments", s.handleComments)
	mux.HandleFunc("/api/v1/top", s.handleTop)
	mux.HandleFunc("/api/v1/latest", s.handleLatest)
	mux.HandleFunc("/api/v1/refresh", s.handleRefresh)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("ytmate server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	channel, err := s.repo.CachedChannel(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if channel == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no channel cached"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": channel})
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	videos, err := s.repo.CachedVideos(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": videos, "count": len(videos)})
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	comments, err := s.repo.CachedComments(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": comments, "count": len(comments)})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	comments, exclude, err := s.commentsAndExclude(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	groups := insight.TopCommenters(comments, exclude)
	writeJSON(w, http.StatusOK, map[string]any{"data": groups, "count": len(groups)})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	comments, exclude, err := s.commentsAndExclude(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	feed := insight.LatestFeed(comments, exclude)
	writeJSON(w, http.StatusOK, map[string]any{"data": feed, "count": len(feed)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.refresher == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "refresh not configured"})
		return
	}

	result, err := s.refresher.RefreshOnce(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": result})
}

func (s *Server) commentsAndExclude(ctx context.Context) ([]model.Comment, string, error) {
	comments, err := s.repo.CachedComments(ctx)
	if err != nil {
		return nil, "", err
	}

	exclude := s.excludeAuthor
	if exclude == "" {
		channel, err := s.repo.CachedChannel(ctx)
		if err != nil {
			return nil, "", err
		}
		if channel != nil {
			exclude = channel.Handle
		}
	}
	return comments, exclude, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
