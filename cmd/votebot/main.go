package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"digest_curator/internal/bot"
	"digest_curator/internal/config"
	"digest_curator/internal/fngs"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.Bot.Token == "" {
		slog.Error("bot token is required (config or TELEGRAM_BOT_TOKEN)")
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

	b, err := bot.New(cfg.Bot.Token, cfg.Bot.ChatID, client, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	announcer := bot.NewAnnouncer(client, b, time.Duration(cfg.Bot.PollMinutes)*time.Minute, log)

	log.Info("starting vote bot")

	go announcer.Run(ctx)

	b.Run(ctx)

	log.Info("vote bot stopped")
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
