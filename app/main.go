package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedmill/feedmill/app/api"
	"github.com/feedmill/feedmill/app/cache"
	"github.com/feedmill/feedmill/app/cfg"
	"github.com/feedmill/feedmill/app/crawler"
	"github.com/feedmill/feedmill/app/feed"
	"github.com/feedmill/feedmill/app/fix"
	"github.com/feedmill/feedmill/app/gather"
)

func main() {
	config, oneShotURL, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config == nil {
		// help was shown
		return
	}

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	contentCache, err := cache.New(config)
	if err != nil {
		slog.Error("Failed to initialize cache", "backend", config.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer contentCache.Close()

	var siteRules []fix.SiteRule
	if config.SiteRulesPath != "" {
		siteRules, err = fix.LoadSiteRules(config.SiteRulesPath)
		if err != nil {
			slog.Error("Failed to load site rules", "path", config.SiteRulesPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded site rules", "count", len(siteRules))
	}

	httpCrawler := crawler.New(contentCache, config.UserAgent, config.MaxDownload,
		config.MaxRedirects, time.Duration(config.Timeout)*time.Second)
	gatherer := gather.New(httpCrawler, siteRules, config)

	if oneShotURL != "" {
		if err := runOnce(gatherer, oneShotURL); err != nil {
			slog.Error("Failed to process feed", "url", oneShotURL, "error", err)
			os.Exit(1)
		}
		return
	}

	handler := api.NewHandler(gatherer)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", config.Port, "version", config.Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// runOnce processes a single feed URL and writes the result to stdout,
// for use from cron jobs and scripts.
func runOnce(gatherer *gather.Gatherer, url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := gather.Options{}

	parsed, baseURL, err := gatherer.FetchFeed(ctx, url, opts)
	if err != nil {
		return err
	}

	result := gatherer.Run(ctx, parsed, baseURL, opts)

	body, _, err := feed.NewGenerator().Run(result, "")
	if err != nil {
		return err
	}

	fmt.Println(body)
	return nil
}
