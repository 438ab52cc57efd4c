package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/storage"
)

type mockProvider struct {
	key     string
	name    string
	adult   bool
	results []core.SearchResult
	err     error
}

func (p *mockProvider) Key() string  { return p.key }
func (p *mockProvider) Name() string { return p.name }
func (p *mockProvider) Adult() bool  { return p.adult }
func (p *mockProvider) Close() error { return nil }
func (p *mockProvider) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.results, nil
}

func result(id, title, source string) core.SearchResult {
	return core.SearchResult{
		ID:         id,
		Title:      title,
		Source:     source,
		SourceName: source,
		Episodes:   []string{"https://example.com/" + id + ".m3u8"},
	}
}

func setupTestAPIServer(t *testing.T, providers ...core.Provider) (http.Handler, *storage.Manager) {
	t.Helper()

	storageManager, err := storage.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage manager: %v", err)
	}
	t.Cleanup(func() {
		if err := storageManager.Close(); err != nil {
			t.Errorf("Failed to close storage manager: %v", err)
		}
	})

	registry := core.NewRegistry()
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			t.Fatalf("Failed to register provider %s: %v", p.Key(), err)
		}
	}
	t.Cleanup(func() {
		if err := registry.Close(); err != nil {
			t.Errorf("Failed to close registry: %v", err)
		}
	})

	server := NewServer(registry, storageManager, 300)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	return CorsMiddleware(mux), storageManager
}

func doSearch(t *testing.T, handler http.Handler, target string, header http.Header) (*httptest.ResponseRecorder, SearchResponse) {
	t.Helper()

	req := httptest.NewRequest("GET", target, nil)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var response SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return w, response
}

func TestSearchEmptyQuery(t *testing.T) {
	handler, _ := setupTestAPIServer(t, &mockProvider{key: "site1", name: "Site 1"})

	w, response := doSearch(t, handler, "/api/search", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(response.RegularResults) != 0 || len(response.AdultResults) != 0 {
		t.Errorf("Expected empty result sets, got %d regular, %d adult",
			len(response.RegularResults), len(response.AdultResults))
	}

	cacheControl := w.Header().Get("Cache-Control")
	if !strings.Contains(cacheControl, "max-age=300") {
		t.Errorf("Expected Cache-Control with max-age=300, got %q", cacheControl)
	}
	for _, header := range []string{"CDN-Cache-Control", "Vercel-CDN-Cache-Control"} {
		if w.Header().Get(header) == "" {
			t.Errorf("Expected %s header to be set", header)
		}
	}
}

func TestSearchNoProviders(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	w, response := doSearch(t, handler, "/api/search?q=matrix", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(response.RegularResults) != 0 {
		t.Errorf("Expected empty results, got %d", len(response.RegularResults))
	}
	if response.RegularResults == nil || response.AdultResults == nil {
		t.Error("Expected empty arrays, not null, in the response")
	}
}

func TestSearchMergesProviders(t *testing.T) {
	handler, _ := setupTestAPIServer(t,
		&mockProvider{key: "bsite", name: "B", results: []core.SearchResult{result("10", "Matrix Reloaded", "bsite")}},
		&mockProvider{key: "asite", name: "A", results: []core.SearchResult{result("1", "The Matrix", "asite")}},
	)

	w, response := doSearch(t, handler, "/api/search?q=matrix", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(response.RegularResults) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(response.RegularResults))
	}
	// Results merge in sorted provider key order
	if response.RegularResults[0].Source != "asite" || response.RegularResults[1].Source != "bsite" {
		t.Errorf("Expected results ordered asite then bsite, got %s then %s",
			response.RegularResults[0].Source, response.RegularResults[1].Source)
	}
}

func TestSearchProviderFailureIsolated(t *testing.T) {
	handler, _ := setupTestAPIServer(t,
		&mockProvider{key: "broken", name: "Broken", err: context.DeadlineExceeded},
		&mockProvider{key: "working", name: "Working", results: []core.SearchResult{result("1", "The Matrix", "working")}},
	)

	w, response := doSearch(t, handler, "/api/search?q=matrix", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(response.RegularResults) != 1 {
		t.Fatalf("Expected 1 result from the working provider, got %d", len(response.RegularResults))
	}
	if response.RegularResults[0].Source != "working" {
		t.Errorf("Expected result from working provider, got %s", response.RegularResults[0].Source)
	}
}

func TestSearchAdultFilterCombinations(t *testing.T) {
	adultResult := result("99", "Adult Movie", "adultsite")

	testCases := []struct {
		name          string
		storedFilter  *bool // nil = no settings row
		includeAdult  string
		expectResults int
	}{
		{"no settings, no flag", nil, "", 1},
		{"no settings, flag set", nil, "true", 1},
		{"filter on, flag set", boolPtr(true), "true", 1},
		{"filter off, no flag", boolPtr(false), "", 1},
		{"filter off, flag set", boolPtr(false), "true", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler, storageManager := setupTestAPIServer(t,
				&mockProvider{key: "regular", name: "Regular", results: []core.SearchResult{result("1", "The Matrix", "regular")}},
				&mockProvider{key: "adultsite", name: "Adult Site", adult: true, results: []core.SearchResult{adultResult}},
			)

			if tc.storedFilter != nil {
				settings := core.DefaultUserSettings()
				settings.FilterAdultContent = *tc.storedFilter
				if err := storageManager.SaveUserSettings("alice", settings); err != nil {
					t.Fatalf("Failed to save settings: %v", err)
				}
			}

			target := "/api/search?q=matrix&user=alice"
			if tc.includeAdult != "" {
				target += "&include_adult=" + tc.includeAdult
			}

			w, response := doSearch(t, handler, target, nil)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if len(response.RegularResults) != tc.expectResults {
				t.Errorf("Expected %d results, got %d", tc.expectResults, len(response.RegularResults))
			}
			if len(response.AdultResults) != 0 {
				t.Errorf("Expected adult_results to stay empty, got %d", len(response.AdultResults))
			}
		})
	}
}

func TestSearchBearerTokenIdentity(t *testing.T) {
	handler, storageManager := setupTestAPIServer(t,
		&mockProvider{key: "adultsite", name: "Adult Site", adult: true, results: []core.SearchResult{result("99", "Adult Movie", "adultsite")}},
	)

	settings := core.DefaultUserSettings()
	settings.FilterAdultContent = false
	if err := storageManager.SaveUserSettings("bob", settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer bob")
	w, response := doSearch(t, handler, "/api/search?q=matrix&include_adult=true", header)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if len(response.RegularResults) != 1 {
		t.Errorf("Expected the adult site to be searched for bob, got %d results", len(response.RegularResults))
	}
}

func TestSearchUserParamWinsOverBearer(t *testing.T) {
	handler, storageManager := setupTestAPIServer(t,
		&mockProvider{key: "adultsite", name: "Adult Site", adult: true, results: []core.SearchResult{result("99", "Adult Movie", "adultsite")}},
	)

	// Only bob has the filter off; the user parameter names alice.
	settings := core.DefaultUserSettings()
	settings.FilterAdultContent = false
	if err := storageManager.SaveUserSettings("bob", settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer bob")
	_, response := doSearch(t, handler, "/api/search?q=matrix&user=alice&include_adult=true", header)

	if len(response.RegularResults) != 0 {
		t.Errorf("Expected filter to stay on for alice, got %d results", len(response.RegularResults))
	}
}

func TestOptionsPreflightHandled(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/search", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected Access-Control-Allow-Origin header")
	}
}

func TestUserSettingsRoundTrip(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	body := `{"filter_adult_content": false, "theme": "dark", "auto_play": true}`
	req := httptest.NewRequest("POST", "/api/user/settings?user=carol", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 saving settings, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/user/settings?user=carol", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 loading settings, got %d", w.Code)
	}

	var settings core.UserSettings
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("Failed to decode settings: %v", err)
	}
	if settings.FilterAdultContent {
		t.Error("Expected filter_adult_content false after save")
	}
	if settings.Theme != "dark" || !settings.AutoPlay {
		t.Errorf("Unexpected settings after round trip: %+v", settings)
	}
}

func TestUserSettingsUnknownUserGetsDefaults(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	req := httptest.NewRequest("GET", "/api/user/settings?user=nobody", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var settings core.UserSettings
	if err := json.Unmarshal(w.Body.Bytes(), &settings); err != nil {
		t.Fatalf("Failed to decode settings: %v", err)
	}
	if !settings.FilterAdultContent {
		t.Error("Expected default settings with filtering enabled")
	}
}

func TestUserSettingsMissingUser(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	for _, method := range []string{"GET", "POST"} {
		req := httptest.NewRequest(method, "/api/user/settings", strings.NewReader("{}"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s without user, got %d", method, w.Code)
		}
	}
}

func TestListSites(t *testing.T) {
	handler, _ := setupTestAPIServer(t,
		&mockProvider{key: "site1", name: "Site 1"},
		&mockProvider{key: "site2", name: "Site 2", adult: true},
	)

	req := httptest.NewRequest("GET", "/api/sites", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response ListSitesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 2 {
		t.Errorf("Expected 2 sites, got %d", response.Count)
	}
	if !response.Sites[1].Adult {
		t.Error("Expected site2 to be flagged adult")
	}
}

func TestHealth(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", contentType)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := setupTestAPIServer(t)

	testCases := []struct {
		method   string
		endpoint string
	}{
		{"POST", "/api/search"},
		{"DELETE", "/api/search"},
		{"POST", "/api/sites"},
		{"DELETE", "/api/user/settings"},
		{"POST", "/health"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+"_"+tc.endpoint, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.endpoint, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected status 405 for %s %s, got %d", tc.method, tc.endpoint, w.Code)
			}
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
