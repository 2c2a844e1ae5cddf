package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/mention-tracker/internal/aggregation"
	"github.com/azure/mention-tracker/internal/api"
	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/notifications"
	"github.com/azure/mention-tracker/internal/scheduler"
	"github.com/azure/mention-tracker/internal/search"
	"github.com/azure/mention-tracker/internal/sources"
	"github.com/azure/mention-tracker/internal/watchlist"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Mention Tracker")

	searchService := search.NewService(
		cfg,
		sources.NewHackerNewsSource(cfg.HackerNewsSearchURL, cfg.HTTPTimeout),
		sources.NewWebSource(cfg.WebSearchURL, cfg.UserAgent, cfg.HTTPTimeout, cfg.ScrapeRateLimit),
		aggregation.NewAggregator(cfg.Location(), time.Now),
	)

	watchlistService := watchlist.NewService(cfg, searchService, notifications.NewService(cfg))

	schedulerService := scheduler.NewService(cfg, watchlistService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewRouter(searchService, 2*cfg.HTTPTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
