// Package stats collects view counts for published digest issues from the
// hosting platforms (Habr, VK article pages).
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Posts lists the published issue pages to scrape.
type Posts struct {
	// Habr maps issue number to the Habr post URL.
	Habr map[int]string `yaml:"habr"`
	// VKPrefix plus the issue number forms the VK article URL.
	VKPrefix string `yaml:"vk_prefix"`
	VKCount  int    `yaml:"vk_count"`
}

// VKURLs expands the VK prefix into per-issue article URLs.
func (p Posts) VKURLs() map[int]string {
	urls := make(map[int]string, p.VKCount)
	for i := 0; i < p.VKCount; i++ {
		urls[i] = fmt.Sprintf("%s%d", p.VKPrefix, i)
	}
	return urls
}

// LoadPosts reads a Posts listing from a YAML file.
func LoadPosts(path string) (Posts, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Posts{}, fmt.Errorf("read posts file: %w", err)
	}
	var posts Posts
	if err := yaml.Unmarshal(data, &posts); err != nil {
		return Posts{}, fmt.Errorf("parse posts file: %w", err)
	}
	return posts, nil
}

// Extractor pulls a view count out of a fetched page.
type Extractor func(doc *goquery.Document) (int, error)

// Collector scrapes view counts, one page at a time with a politeness
// delay between requests.
type Collector struct {
	client HTTPClient
	log    *slog.Logger

	// Delay is the pause between consecutive page fetches.
	Delay time.Duration
}

// NewCollector creates a Collector.
func NewCollector(client HTTPClient, log *slog.Logger) *Collector {
	return &Collector{
		client: client,
		log:    log,
		Delay:  time.Second,
	}
}

// Collect fetches every URL and extracts its view count. Pages that fail
// to fetch or parse are logged and omitted from the result.
func (c *Collector) Collect(ctx context.Context, source string, urls map[int]string, extract Extractor) map[int]int {
	numbers := make([]int, 0, len(urls))
	for n := range urls {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	counts := make(map[int]int)
	for i, number := range numbers {
		if i > 0 {
			select {
			case <-ctx.Done():
				return counts
			case <-time.After(c.Delay):
			}
		}
		url := urls[number]
		views, err := c.fetch(ctx, url, extract)
		if err != nil {
			c.log.Error("collect views", "source", source, "issue", number, "url", url, "error", err)
			continue
		}
		c.log.Info("views collected", "source", source, "issue", number, "views", views)
		counts[number] = views
	}
	return counts
}

func (c *Collector) fetch(ctx context.Context, url string, extract Extractor) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "DigestCurator/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("parse page: %w", err)
	}
	return extract(doc)
}

// habrCountRe matches Habr's abbreviated counter: "847", "12k", "12,5k".
var habrCountRe = regexp.MustCompile(`^((\d+)(,(\d+))?)k?$`)

// HabrViews extracts the view counter from a Habr post page.
func HabrViews(doc *goquery.Document) (int, error) {
	text := strings.TrimSpace(doc.Find("span.post-stats__views-count").First().Text())
	if text == "" {
		return 0, fmt.Errorf("views counter not found")
	}
	return ParseHabrCount(text)
}

// ParseHabrCount converts Habr's abbreviated counter into a number. The
// "k" suffix multiplies by a thousand and the digit after the comma is
// hundreds: "12,5k" is 12500.
func ParseHabrCount(s string) (int, error) {
	m := habrCountRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid views counter %q", s)
	}
	if !strings.Contains(s, "k") {
		return strconv.Atoi(m[1])
	}
	views, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("invalid views counter %q", s)
	}
	views *= 1000
	if m[4] != "" {
		tenth, err := strconv.Atoi(m[4])
		if err != nil {
			return 0, fmt.Errorf("invalid views counter %q", s)
		}
		views += tenth * 100
	}
	return views, nil
}

// vkViewsRe pulls the leading number out of VK's "N просмотров" label.
var vkViewsRe = regexp.MustCompile(`^(\d+) просмотр`)

// VKViews extracts the view counter from a VK article page.
func VKViews(doc *goquery.Document) (int, error) {
	text := strings.TrimSpace(doc.Find("div.articleView__views_info").First().Text())
	m := vkViewsRe.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("views counter not found")
	}
	return strconv.Atoi(m[1])
}

// SpreadsheetRow merges per-source counts into one tab-separated row
// ordered by issue number, Habr before VK, matching the tracking sheet's
// column layout.
func SpreadsheetRow(habr, vk map[int]int) string {
	last := -1
	for n := range habr {
		if n > last {
			last = n
		}
	}
	for n := range vk {
		if n > last {
			last = n
		}
	}

	var b strings.Builder
	for n := 0; n <= last; n++ {
		if views, ok := habr[n]; ok {
			fmt.Fprintf(&b, "%d\t", views)
		}
		if views, ok := vk[n]; ok {
			fmt.Fprintf(&b, "%d\t", views)
		}
	}
	return b.String()
}
