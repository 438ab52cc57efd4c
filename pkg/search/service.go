// Package search implements the provider fan-out. A query is dispatched
// concurrently to every eligible site, provider failures are dropped, and
// the fulfilled results are merged in stable provider order.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/log"
)

// maxConcurrentProviders limits the number of provider queries that run
// simultaneously, so a config with many sites doesn't open a request storm.
const maxConcurrentProviders = 10

// Params configures a single fan-out search.
type Params struct {
	// Query is the search term. An empty query dispatches nothing and
	// yields empty results.
	Query string

	// IncludeAdult relaxes the adult filter for this search. The caller is
	// responsible for resolving the effective policy first.
	IncludeAdult bool
}

// ProviderStatus records the outcome of one provider's query.
type ProviderStatus struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Count int    `json:"count"`
}

// Results is the merged outcome of a fan-out search.
type Results struct {
	Query     string
	Results   []core.SearchResult
	Providers []ProviderStatus
	Elapsed   time.Duration
}

// Service fans queries out to the registered providers.
type Service struct {
	registry *core.Registry
	logger   *log.Logger
}

func NewService(registry *core.Registry) *Service {
	return &Service{
		registry: registry,
		logger:   log.ForService("search"),
	}
}

// Search dispatches the query to every eligible provider and merges the
// fulfilled results. A failing provider contributes nothing; it never fails
// the overall search.
func (s *Service) Search(ctx context.Context, params Params) *Results {
	startedAt := time.Now()

	query := strings.TrimSpace(params.Query)
	results := &Results{Query: query}

	if query == "" {
		results.Results = []core.SearchResult{}
		results.Elapsed = time.Since(startedAt)
		return results
	}

	providers := s.registry.Available(params.IncludeAdult)
	statuses := make([]ProviderStatus, len(providers))
	perProvider := make([][]core.SearchResult, len(providers))

	sem := semaphore.NewWeighted(maxConcurrentProviders)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, provider := range providers {
		wg.Add(1)
		go func(index int, p core.Provider) {
			defer wg.Done()

			status := ProviderStatus{Key: p.Key(), Name: p.Name()}

			if err := sem.Acquire(ctx, 1); err != nil {
				status.Error = "context cancelled"
				mu.Lock()
				statuses[index] = status
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			items, err := p.Search(ctx, query)
			if err != nil {
				s.logger.Warnf("provider %s failed: %v", p.Key(), err)
				status.Error = err.Error()
				mu.Lock()
				statuses[index] = status
				mu.Unlock()
				return
			}

			status.OK = true
			status.Count = len(items)
			mu.Lock()
			statuses[index] = status
			perProvider[index] = items
			mu.Unlock()
		}(i, provider)
	}

	wg.Wait()

	merged := make([]core.SearchResult, 0)
	for _, items := range perProvider {
		merged = append(merged, items...)
	}

	results.Results = merged
	results.Providers = statuses
	results.Elapsed = time.Since(startedAt)

	s.logger.Debugf("query %q: %d results from %d providers in %v",
		query, len(merged), len(providers), results.Elapsed)

	return results
}
