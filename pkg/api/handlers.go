package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/search"
	"github.com/nick200000/KatelyaTV/pkg/storage"
	"github.com/nick200000/KatelyaTV/pkg/version"
)

// requestUser resolves the requesting username. The user query parameter
// wins; the Authorization bearer token is the fallback identity source.
func requestUser(r *http.Request) string {
	if user := r.URL.Query().Get("user"); user != "" {
		return user
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}

	return ""
}

// resolveAdultFilter returns whether adult content must be filtered for
// this request. The filter is relaxed only when the stored settings have
// filtering turned off AND the request explicitly passes include_adult.
// Any settings lookup failure keeps the filter on.
func (s *Server) resolveAdultFilter(user string, includeAdult bool) bool {
	if !includeAdult {
		return true
	}

	settings, err := s.storage.GetUserSettings(user)
	if err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) {
			s.logger.Warnf("settings lookup for %q failed, keeping adult filter on: %v", user, err)
		}
		return true
	}

	return settings.FilterAdultContent
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Errorf("search handler panicked: %v", rec)
			s.writeJSON(w, http.StatusInternalServerError, SearchResponse{
				RegularResults: []core.SearchResult{},
				AdultResults:   []core.SearchResult{},
				Error:          "search failed",
			})
		}
	}()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	user := requestUser(r)
	includeAdult, _ := strconv.ParseBool(r.URL.Query().Get("include_adult"))

	filterAdult := s.resolveAdultFilter(user, includeAdult)

	s.setCacheHeaders(w)

	if query == "" {
		s.writeJSON(w, http.StatusOK, SearchResponse{
			RegularResults: []core.SearchResult{},
			AdultResults:   []core.SearchResult{},
		})
		return
	}

	results := s.searchService.Search(r.Context(), search.Params{
		Query:        query,
		IncludeAdult: !filterAdult,
	})

	s.writeJSON(w, http.StatusOK, SearchResponse{
		RegularResults: results.Results,
		AdultResults:   []core.SearchResult{},
	})
}

func (s *Server) HandleListSites(w http.ResponseWriter, r *http.Request) {
	providers := s.registry.Available(true)

	sites := make([]SiteInfo, len(providers))
	for i, p := range providers {
		sites[i] = SiteInfo{
			Key:   p.Key(),
			Name:  p.Name(),
			Adult: p.Adult(),
		}
	}

	response := ListSitesResponse{
		Sites: sites,
		Count: len(sites),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleGetUserSettings(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "Missing user", "A username is required via the user parameter or bearer token")
		return
	}

	settings, err := s.storage.GetUserSettings(user)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		s.writeError(w, http.StatusInternalServerError, "Failed to load settings", err.Error())
		return
	}

	// Unknown users get the defaults without an error; the row is only
	// created once they save.
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) HandleSaveUserSettings(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	if user == "" {
		s.writeError(w, http.StatusBadRequest, "Missing user", "A username is required via the user parameter or bearer token")
		return
	}

	var settings core.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	if err := s.storage.SaveUserSettings(user, settings); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to save settings", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
