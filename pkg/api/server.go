package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/log"
	"github.com/nick200000/KatelyaTV/pkg/search"
	"github.com/nick200000/KatelyaTV/pkg/storage"
)

type Server struct {
	registry      *core.Registry
	searchService *search.Service
	storage       *storage.Manager
	cacheSeconds  int
	logger        *log.Logger
}

func NewServer(registry *core.Registry, storageManager *storage.Manager, cacheSeconds int) *Server {
	return &Server{
		registry:      registry,
		searchService: search.NewService(registry),
		storage:       storageManager,
		cacheSeconds:  cacheSeconds,
		logger:        log.ForService("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// setCacheHeaders composes the CDN cache headers for search responses.
// All three headers derive from the single configured cache duration.
func (s *Server) setCacheHeaders(w http.ResponseWriter) {
	n := s.cacheSeconds
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, s-maxage=%d", n, n))
	w.Header().Set("CDN-Cache-Control", fmt.Sprintf("public, s-maxage=%d", n))
	w.Header().Set("Vercel-CDN-Cache-Control", fmt.Sprintf("public, s-maxage=%d", n))
}

// CorsMiddleware adds CORS headers and answers OPTIONS preflight requests
// before they reach the mux.
func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
