package bot

import (
	"context"
	"log/slog"
	"time"

	"digest_curator/internal/model"
)

// RecordFeed supplies the records that still wait for votes.
type RecordFeed interface {
	FetchNewRecords(ctx context.Context, botOnly bool) ([]model.DigestRecord, error)
}

// Announcer periodically polls the gathering server for new records and
// announces each one to the subscriber chat exactly once per session.
type Announcer struct {
	feed RecordFeed
	bot  *Bot
	log  *slog.Logger
	tick time.Duration

	announced map[int64]struct{}
}

// NewAnnouncer creates an Announcer polling at the given interval.
func NewAnnouncer(feed RecordFeed, bot *Bot, tick time.Duration, log *slog.Logger) *Announcer {
	return &Announcer{
		feed:      feed,
		bot:       bot,
		log:       log,
		tick:      tick,
		announced: make(map[int64]struct{}),
	}
}

// Run starts the poll loop, blocking until ctx is cancelled.
func (a *Announcer) Run(ctx context.Context) {
	a.checkNew(ctx)

	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.checkNew(ctx)
		}
	}
}

func (a *Announcer) checkNew(ctx context.Context) {
	records, err := a.feed.FetchNewRecords(ctx, true)
	if err != nil {
		a.log.Error("fetch new records", "error", err)
		return
	}

	sent := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			return
		}
		if _, ok := a.announced[rec.ID]; ok {
			continue
		}
		if err := a.bot.Announce(rec); err != nil {
			a.log.Error("announce record", "record_id", rec.ID, "error", err)
			continue
		}
		a.announced[rec.ID] = struct{}{}
		sent++

		// Rate limit: ~20 messages/sec max for Telegram
		time.Sleep(50 * time.Millisecond)
	}

	if sent > 0 {
		a.log.Info("announced records", "count", sent)
	}
}
