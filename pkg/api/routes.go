package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API routes with method-specific routing; OPTIONS preflight is
	// answered by CorsMiddleware before reaching the mux.
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/sites", s.HandleListSites)
	mux.HandleFunc("GET /api/user/settings", s.HandleGetUserSettings)
	mux.HandleFunc("POST /api/user/settings", s.HandleSaveUserSettings)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
