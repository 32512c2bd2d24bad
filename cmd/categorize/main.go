package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"digest_curator/internal/classify"
	"digest_curator/internal/config"
	"digest_curator/internal/fngs"
	"digest_curator/internal/keywords"
	"digest_curator/internal/prompt"
	"digest_curator/internal/similar"
	"digest_curator/internal/storage"
	"digest_curator/internal/workflow"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	botOnly := flag.Bool("bot-only", false, "curate only records harvested by the bot")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := fngs.New(&http.Client{Timeout: 30 * time.Second}, cfg.Server.Host, cfg.Server.Port)
	if err := client.Login(ctx, cfg.Server.User, cfg.Server.Password); err != nil {
		log.Error("login", "error", err)
		os.Exit(1)
	}

	kws, err := client.FetchKeywords(ctx)
	if err != nil {
		log.Error("fetch keywords", "error", err)
		os.Exit(1)
	}
	classifier := classify.New(keywords.NewIndex(kws))

	if dir := filepath.Dir(cfg.BackupPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}
	store, err := storage.NewSQLite(cfg.BackupPath)
	if err != nil {
		log.Error("open backup database", "path", cfg.BackupPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	prompter := prompt.NewConsole(os.Stdin, os.Stdout)
	resolver := similar.NewResolver(client, client, prompter)

	wf := workflow.New(client, store, classifier, resolver, cfg.Policy(), prompter, log)
	wf.BotOnly = *botOnly

	if err := wf.Run(ctx); err != nil {
		log.Error("curation failed", "error", err)
		os.Exit(1)
	}
	log.Info("curation finished")
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
