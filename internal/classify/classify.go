// Package classify implements the keyword and rule based guessing of a
// record's content type and content category from its title and URL.
//
// Guesses are heuristics: the caller is expected to confirm them with a
// human before persisting anything.
package classify

import (
	"regexp"
	"strings"

	"digest_curator/internal/keywords"
	"digest_curator/internal/model"
)

// videoHosts are URL fragments of known video hosting domains.
var videoHosts = []string{
	"youtube.com/",
	"youtu.be/",
}

// typeMarker pins a recurring syndicated column title to a fixed type.
type typeMarker struct {
	Substring string
	Type      model.ContentType
}

// typeMarkers are literal overrides checked before any keyword rule.
// Order matters: the list is scanned top to bottom.
var typeMarkers = []typeMarker{
	{"Еженедельник OSM", model.TypeNews},
	{"Проект недели", model.TypeOther},
}

// conferenceVideoRe matches recurring security conference talk uploads.
var conferenceVideoRe = regexp.MustCompile(`(?i)DEF CON \d+`)

// releaseWords are case-insensitive substrings signalling a release announce.
var releaseWords = []string{
	"release",
	"released",
	"релиз",
	"выпуск",
	"выпущен",
	"вышел",
	"вышла",
	"вышло",
	"обновление",
	"доступен",
}

// articleWords are case-insensitive substrings signalling an article.
var articleWords = []string{
	"how to",
	"why ",
	"what is",
	"guide",
	"tutorial",
	"introduction to",
	"как ",
	"почему",
	"обзор",
	"опыт",
	"сравнение",
	"руководство",
	"гайд",
	"разбор",
	"мнение",
}

// categoryMarker pins a recurring syndicated column title to a fixed category.
type categoryMarker struct {
	Substring string
	Category  model.ContentCategory
}

// categoryMarkers are literal overrides that bypass the keyword search.
var categoryMarkers = []categoryMarker{
	{"Еженедельник OSM", model.CategoryMisc},
	{"Обзор игр с открытым кодом", model.CategoryGames},
}

// diyHost always contributes the DIY category regardless of keywords.
const diyHost = "hackaday.com"

// Classifier guesses content type and category for a title/URL pair using
// a loaded keyword index. It is pure: the same inputs always produce the
// same outputs.
type Classifier struct {
	index     *keywords.Index
	wordRes   map[string]*regexp.Regexp
	versionRe map[string]*regexp.Regexp
}

// New builds a Classifier over the given keyword index. All keyword
// patterns are compiled up front; keywords are quoted first so names like
// "C++" or "0 A.D." stay literal.
func New(index *keywords.Index) *Classifier {
	c := &Classifier{
		index:     index,
		wordRes:   make(map[string]*regexp.Regexp),
		versionRe: make(map[string]*regexp.Regexp),
	}
	for _, cat := range index.Categories() {
		for _, kw := range index.ForCategory(cat) {
			if _, ok := c.wordRes[kw.Name]; !ok {
				c.wordRes[kw.Name] = wholeWordPattern(kw.Name)
			}
		}
	}
	for _, kw := range index.Specific() {
		if _, ok := c.versionRe[kw.Name]; !ok {
			c.versionRe[kw.Name] = versionPattern(kw.Name)
		}
	}
	return c
}

// wholeWordPattern matches the keyword as a whole word, case-insensitively.
// regexp's \b is ASCII-only, so the boundaries are written out as
// "not a letter or digit" to keep Cyrillic keywords working.
func wholeWordPattern(keyword string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(keyword)
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])` + quoted + `([^\p{L}\p{N}_]|$)`)
}

// versionPattern matches the keyword immediately followed by an optional
// comma/space and a version-like token ("v1", ".9", "6.2").
func versionPattern(keyword string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(keyword)
	return regexp.MustCompile(`(?i)` + quoted + `,? ?v?\.?\d`)
}

// GuessContentType runs the ordered type rule chain. The second return
// value is false when no rule matched and a human has to decide.
func (c *Classifier) GuessContentType(title, url string) (model.ContentType, bool) {
	for _, host := range videoHosts {
		if strings.Contains(url, host) {
			return model.TypeVideos, true
		}
	}
	for _, m := range typeMarkers {
		if strings.Contains(title, m.Substring) {
			return m.Type, true
		}
	}
	if conferenceVideoRe.MatchString(title) {
		return model.TypeVideos, true
	}
	lower := strings.ToLower(title)
	for _, w := range releaseWords {
		if strings.Contains(lower, w) {
			return model.TypeReleases, true
		}
	}
	for _, w := range articleWords {
		if strings.Contains(lower, w) {
			return model.TypeArticles, true
		}
	}
	for _, kw := range c.index.Specific() {
		if c.versionRe[kw.Name].MatchString(title) {
			return model.TypeReleases, true
		}
	}
	return model.TypeUnknown, false
}

// GuessContentCategory returns category candidates in discovery order along
// with the keywords that matched per category. Literal column markers force
// a single candidate and skip the keyword search entirely.
func (c *Classifier) GuessContentCategory(title, url string) ([]model.ContentCategory, map[model.ContentCategory][]string) {
	for _, m := range categoryMarkers {
		if strings.Contains(title, m.Substring) {
			return []model.ContentCategory{m.Category}, nil
		}
	}

	var candidates []model.ContentCategory
	matched := make(map[model.ContentCategory][]string)
	for _, cat := range c.index.Categories() {
		for _, kw := range c.index.ForCategory(cat) {
			if !c.wordRes[kw.Name].MatchString(title) {
				continue
			}
			if len(matched[cat]) == 0 {
				candidates = append(candidates, cat)
			}
			matched[cat] = append(matched[cat], kw.Name)
		}
	}

	if strings.Contains(url, diyHost) {
		present := false
		for _, cat := range candidates {
			if cat == model.CategoryDIY {
				present = true
				break
			}
		}
		if !present {
			candidates = append(candidates, model.CategoryDIY)
		}
	}

	if len(matched) == 0 {
		matched = nil
	}
	return candidates, matched
}
