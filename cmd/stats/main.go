package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digest_curator/internal/stats"
)

func main() {
	postsPath := flag.String("posts", "./posts.yaml", "path to the published posts listing")
	outPath := flag.String("out", "google-docs-stats.csv", "output file for the spreadsheet row")
	delay := flag.Duration("delay", time.Second, "pause between page fetches")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	posts, err := stats.LoadPosts(*postsPath)
	if err != nil {
		log.Error("load posts", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := stats.NewCollector(&http.Client{Timeout: 30 * time.Second}, log)
	collector.Delay = *delay

	habr := collector.Collect(ctx, "Habr", posts.Habr, stats.HabrViews)
	vk := collector.Collect(ctx, "VK", posts.VKURLs(), stats.VKViews)

	row := stats.SpreadsheetRow(habr, vk)
	if err := os.WriteFile(*outPath, []byte(row), 0o644); err != nil {
		log.Error("write output", "path", *outPath, "error", err)
		os.Exit(1)
	}
	log.Info("statistics saved", "path", *outPath, "habr", len(habr), "vk", len(vk))
}
