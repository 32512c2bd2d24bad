package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"digest_curator/internal/config"
	"digest_curator/internal/fngs"
	"digest_curator/internal/render"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	issue := flag.Int("issue", 0, "digest issue number to render")
	dialectName := flag.String("dialect", "habr", "target dialect: habr or reddit")
	outPath := flag.String("out", "", "output file (default digest-<issue>-<dialect>.html)")
	flag.Parse()

	if *issue <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: render -issue <number> [-dialect habr|reddit] [-out path]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	dialect, ok := render.Dialects[*dialectName]
	if !ok {
		log.Error("unknown dialect", "dialect", *dialectName)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := fngs.New(&http.Client{Timeout: 30 * time.Second}, cfg.Server.Host, cfg.Server.Port)
	if err := client.Login(ctx, cfg.Server.User, cfg.Server.Password); err != nil {
		log.Error("login", "error", err)
		os.Exit(1)
	}

	records, err := client.FetchIssueRecords(ctx, *issue)
	if err != nil {
		log.Error("fetch issue records", "issue", *issue, "error", err)
		os.Exit(1)
	}
	groups, err := client.FetchSimilarGroups(ctx, *issue)
	if err != nil {
		log.Error("fetch similarity groups", "issue", *issue, "error", err)
		os.Exit(1)
	}

	r := render.NewRenderer(dialect, cfg.Curation.AttentionSources)
	doc, err := r.Render(records, groups)
	if err != nil {
		log.Error("render digest", "issue", *issue, "error", err)
		os.Exit(1)
	}

	out := *outPath
	if out == "" {
		out = fmt.Sprintf("digest-%d-%s.html", *issue, dialect.Name)
	}
	if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
		log.Error("write output", "path", out, "error", err)
		os.Exit(1)
	}
	log.Info("digest rendered", "issue", *issue, "dialect", dialect.Name, "path", out, "records", len(records))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
