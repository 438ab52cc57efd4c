package core

import (
	"context"
)

// Provider represents an external content catalogue that can be queried for
// videos. All provider sites in KatelyaTV implement this interface to
// integrate with the search fan-out.
//
// Providers are self-contained units that:
// - Know how to query their upstream API (base URL, timeouts, parsing)
// - Convert upstream records into SearchResult values
// - Declare whether they index adult content so the filter can exclude them
//
// Key concepts:
// - Key vs Name: Key is the stable config slug (e.g. "heimuer"), Name is the
//   display name shown in results (e.g. "黑木耳").
// - Isolation: a provider failure never propagates to the caller; the search
//   service drops failed providers and merges the rest.
type Provider interface {
	// Key returns the stable slug identifying this site. It is used as the
	// config table key and as the Source field of results.
	Key() string

	// Name returns the human-readable site name, used as SourceName.
	Name() string

	// Adult reports whether this site indexes adult content. Adult sites
	// are only dispatched when the effective filter policy allows it.
	Adult() bool

	// Search queries the upstream catalogue for the given term.
	//
	// Implementation guidelines:
	// - Respect context cancellation; requests must carry ctx
	// - Return an error for transport or decode failures; never panic
	// - Return an empty slice (not an error) when nothing matches
	Search(ctx context.Context, query string) ([]SearchResult, error)

	// Close releases any resources held by the provider, such as idle
	// HTTP connections.
	Close() error
}
