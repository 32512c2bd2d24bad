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

	"digest_curator/internal/ingest"
)

func main() {
	sourcesPath := flag.String("sources", "./sources.yaml", "path to the source listing")
	outPath := flag.String("out", "parsed-sources.html", "output file for the harvest report")
	days := flag.Int("days", 7, "only keep posts newer than this many days")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	sources, err := ingest.LoadSources(*sourcesPath)
	if err != nil {
		log.Error("load sources", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g := ingest.New(&http.Client{Timeout: 30 * time.Second}, log)
	since := time.Now().UTC().AddDate(0, 0, -*days)
	harvests := g.Collect(ctx, sources, since, nil)

	report := ingest.ReportHTML(harvests)
	if err := os.WriteFile(*outPath, []byte(report), 0o644); err != nil {
		log.Error("write report", "path", *outPath, "error", err)
		os.Exit(1)
	}
	log.Info("harvest report saved", "path", *outPath, "sources", len(sources))
}
