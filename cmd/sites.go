package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/nick200000/KatelyaTV/pkg/config"
	"github.com/urfave/cli/v3"
)

// SitesCommand creates the sites command
func SitesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sites",
		Usage: "List configured provider sites",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listSites(c.String("config"))
		},
	}
}

func listSites(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	keys := cfg.ListSites()
	if len(keys) == 0 {
		fmt.Println("No sites configured. Add [sites.<key>] entries to the config file.")
		return nil
	}
	sort.Strings(keys)

	fmt.Printf("Configured sites (%d):\n", len(keys))
	for _, key := range keys {
		site := cfg.Sites[key]
		marker := ""
		if site.Adult {
			marker = " [adult]"
		}
		fmt.Printf("  %s: %s%s\n", key, site.Name, marker)
		fmt.Printf("    api: %s\n", site.API)
		fmt.Printf("    timeout: %v\n", cfg.GetSiteTimeout(key))
	}

	return nil
}
