package api

import (
	"time"

	"github.com/nick200000/KatelyaTV/pkg/core"
)

// SearchResponse mirrors the wire format the web player consumes. Adult
// results stay an empty array: adult sites are either excluded entirely or,
// when the filter is relaxed, merged into RegularResults.
type SearchResponse struct {
	RegularResults []core.SearchResult `json:"regular_results"`
	AdultResults   []core.SearchResult `json:"adult_results"`
	Error          string              `json:"error,omitempty"`
}

type SiteInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Adult bool   `json:"adult"`
}

type ListSitesResponse struct {
	Sites []SiteInfo `json:"sites"`
	Count int        `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
