// Package ingest handles RSS feed downloading, parsing, and conversion of
// feed items into candidate digest records.
package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"digest_curator/internal/model"
	"digest_curator/internal/render"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source is one RSS feed to harvest candidate records from.
type Source struct {
	Name     string         `yaml:"name"`
	URL      string         `yaml:"url"`
	Language model.Language `yaml:"language"`
}

// Ingestor downloads and parses RSS feeds.
type Ingestor struct {
	client HTTPClient
	log    *slog.Logger
}

// New creates an Ingestor with the given HTTP client.
func New(client HTTPClient, log *slog.Logger) *Ingestor {
	return &Ingestor{client: client, log: log}
}

// Fetch downloads and parses an RSS feed from the given URL.
func (g *Ingestor) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "DigestCurator/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Harvest is the outcome of collecting one source. Warning is set when
// the source could not be fetched; its records are then empty.
type Harvest struct {
	Source  string
	Records []model.DigestRecord
	Warning string
}

// Collect fetches every source and converts its items into candidate
// records. A failing source yields a warning entry instead of aborting
// the run. seen reports whether a cleaned URL is already known; records
// older than since are dropped.
func (g *Ingestor) Collect(ctx context.Context, sources []Source, since time.Time, seen func(url string) bool) []Harvest {
	harvests := make([]Harvest, 0, len(sources))
	for _, src := range sources {
		h := Harvest{Source: src.Name}
		feed, err := g.Fetch(ctx, src.URL)
		if err != nil {
			g.log.Error("fetch source", "source", src.Name, "error", err)
			h.Warning = err.Error()
			harvests = append(harvests, h)
			continue
		}
		h.Records = Records(feed, src, since, seen)
		g.log.Info("source harvested", "source", src.Name, "candidates", len(h.Records))
		harvests = append(harvests, h)
	}
	return harvests
}

// Records converts feed items into candidate records. Items without a
// link, older than since, or whose cleaned URL is already seen, are
// dropped.
func Records(feed *gofeed.Feed, src Source, since time.Time, seen func(url string) bool) []model.DigestRecord {
	var records []model.DigestRecord
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		ts := itemTime(item)
		if !since.IsZero() && ts.Before(since) {
			continue
		}
		url := render.CleanURL(item.Link)
		if seen != nil && seen(url) {
			continue
		}
		records = append(records, model.DigestRecord{
			Title:     strings.TrimSpace(item.Title),
			URL:       url,
			Source:    src.Name,
			Language:  src.Language,
			Timestamp: ts,
			State:     model.StateUnknown,
		})
	}
	return records
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return time.Now().UTC()
	}
}

// ItemGUID returns the GUID for an RSS item.
// If the item has no GUID, a SHA-256 hash of title+link is used.
func ItemGUID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	h := sha256.Sum256([]byte(item.Title + "|" + item.Link))
	return fmt.Sprintf("sha256:%x", h[:16])
}
