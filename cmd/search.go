package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nick200000/KatelyaTV/pkg/config"
	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the configured provider sites",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query",
			},
			&cli.BoolFlag{
				Name:  "include-adult",
				Usage: "Include adult-flagged sites in the fan-out",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall search timeout",
				Value: 30 * time.Second,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchSites(ctx, c.String("config"), c.String("query"), c.Bool("include-adult"), c.Duration("timeout"))
		},
	}
}

// searchSites runs a fan-out search from the CLI and prints the results
// grouped by provider.
func searchSites(ctx context.Context, configPath, query string, includeAdult bool, timeout time.Duration) error {
	if query == "" {
		return fmt.Errorf("a query is required (--query)")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	registry := core.NewRegistry()
	if err := createProvidersFromConfig(registry, cfg); err != nil {
		return fmt.Errorf("creating providers: %w", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			fmt.Printf("Warning: failed to close registry: %v\n", err)
		}
	}()

	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	service := search.NewService(registry)
	results := service.Search(searchCtx, search.Params{
		Query:        query,
		IncludeAdult: includeAdult,
	})

	byProvider := make(map[string][]core.SearchResult)
	for _, result := range results.Results {
		byProvider[result.Source] = append(byProvider[result.Source], result)
	}

	for _, status := range results.Providers {
		if !status.OK {
			fmt.Printf("=== %s: failed (%s) ===\n\n", status.Name, status.Error)
			continue
		}

		items := byProvider[status.Key]
		fmt.Printf("=== %s (%d results) ===\n", status.Name, len(items))
		for i, item := range items {
			fmt.Printf("%d. %s", i+1, item.Title)
			if item.Year != "" {
				fmt.Printf(" (%s)", item.Year)
			}
			if item.TypeName != "" {
				fmt.Printf(" [%s]", item.TypeName)
			}
			fmt.Printf(" - %d episodes\n", len(item.Episodes))
			if item.Desc != "" {
				fmt.Printf("   %s\n", truncate(item.Desc, 100))
			}
		}
		fmt.Println()
	}

	if len(results.Results) == 0 {
		fmt.Println("No results found")
	} else {
		fmt.Printf("Total: %d results from %d sites in %v\n",
			len(results.Results), len(results.Providers), results.Elapsed.Round(time.Millisecond))
	}

	return nil
}
