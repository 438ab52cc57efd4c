package cmd

import (
	"fmt"

	"github.com/nick200000/KatelyaTV/pkg/config"
	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/providers/applecms"
)

// createProvidersFromConfig builds a provider client for every configured
// site and registers it.
func createProvidersFromConfig(registry *core.Registry, cfg *config.Config) error {
	for key, site := range cfg.Sites {
		client, err := applecms.New(key, &applecms.Config{
			Name:    site.Name,
			API:     site.API,
			Detail:  site.Detail,
			Adult:   site.Adult,
			Timeout: cfg.GetSiteTimeout(key),
		})
		if err != nil {
			return fmt.Errorf("creating provider %s: %w", key, err)
		}

		if err := registry.Register(client); err != nil {
			return fmt.Errorf("registering provider %s: %w", key, err)
		}
	}

	return nil
}
