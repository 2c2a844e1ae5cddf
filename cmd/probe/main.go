package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/azure/mention-tracker/internal/aggregation"
	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/azure/mention-tracker/internal/notifications"
	"github.com/azure/mention-tracker/internal/search"
	"github.com/azure/mention-tracker/internal/sources"
	"github.com/azure/mention-tracker/internal/watchlist"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "probe",
		Usage: "Check connectivity to the mention sources from a workstation",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Deadline for the whole probe",
				Value: 60 * time.Second,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := godotenv.Load(); err != nil {
				logrus.Debug("No .env file found, using environment variables")
			}
			if c.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			searchCommand(),
			digestCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Run one combined search and print a summary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "query",
				Usage:    "Company or person to search for",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of web mentions; defaults to WEB_RESULT_LIMIT",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the full result as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			service, _, err := newServices()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
			defer cancel()

			result, err := service.Search(ctx, c.String("query"), c.Int("limit"))
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printResult(result)
			return nil
		},
	}
}

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Build a watchlist digest and print it instead of sending it",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "query",
				Usage: "Watched query (repeatable); defaults to WATCH_QUERIES",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			service, cfg, err := newServices()
			if err != nil {
				return err
			}

			if queries := c.StringSlice("query"); len(queries) > 0 {
				cfg.WatchQueries = queries
			}

			ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
			defer cancel()

			_, err = watchlist.NewService(cfg, service, notifications.NewConsoleNotifier(os.Stdout)).Run(ctx)
			return err
		},
	}
}

func newServices() (*search.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	service := search.NewService(
		cfg,
		sources.NewHackerNewsSource(cfg.HackerNewsSearchURL, cfg.HTTPTimeout),
		sources.NewWebSource(cfg.WebSearchURL, cfg.UserAgent, cfg.HTTPTimeout, cfg.ScrapeRateLimit),
		aggregation.NewAggregator(cfg.Location(), time.Now),
	)
	return service, cfg, nil
}

func printResult(result *models.CombinedSearchResult) {
	summary := result.MentionSummary

	fmt.Printf("Hacker News mentions for %q (last %d days)\n", result.Query, aggregation.WindowDays)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Mentions: %d | Points: %d | Comments: %d\n\n", summary.TotalMentions, summary.TotalPoints, summary.TotalComments)

	for _, bucket := range summary.DailyBuckets {
		fmt.Printf("%s  %3d %s\n", bucket.Date, bucket.MentionCount, strings.Repeat("#", bucket.MentionCount))
	}

	fmt.Printf("\nWeb mentions: %d\n", len(result.WebMentions.Results))
	if result.WebMentions.Error != "" {
		fmt.Printf("Web search degraded: %s\n", result.WebMentions.Error)
	}
	for _, mention := range result.WebMentions.Results {
		fmt.Printf("  * %s\n    %s\n", mention.Title, mention.URL)
	}
}
