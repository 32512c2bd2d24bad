// Package render turns a classified, deduplicated record set into the
// digest document. Rendering is deterministic: the same records and groups
// always produce the same markup.
package render

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"digest_curator/internal/model"
)

// Dialect describes one output flavor of the digest document.
type Dialect struct {
	Name           string
	TypeLabels     map[model.ContentType]string
	CategoryLabels map[model.ContentCategory]string
	MainHeader     string
	OtherHeader    string
	// EnglishOnly limits the document to English records plus records from
	// WhitelistHost.
	EnglishOnly   bool
	WhitelistHost string
	// TitleAnchors renders links with the record title as anchor text;
	// otherwise the bare URL is used.
	TitleAnchors bool
	// LanguageSuffix appends an "(en)" marker to English items.
	LanguageSuffix bool
}

// Habr is the Russian-language dialect published on Habr.
var Habr = Dialect{
	Name:           "habr",
	TypeLabels:     model.ContentTypeLabelsRU,
	CategoryLabels: model.ContentCategoryLabelsRU,
	MainHeader:     "Главное",
	OtherHeader:    "Прочее",
	TitleAnchors:   true,
	LanguageSuffix: true,
}

// Reddit is the English-language dialect: English records only, plus one
// whitelisted non-English source, bare URLs, no language markers.
var Reddit = Dialect{
	Name:           "reddit",
	TypeLabels:     model.ContentTypeLabelsEN,
	CategoryLabels: model.ContentCategoryLabelsEN,
	MainHeader:     "Main",
	OtherHeader:    "Other",
	EnglishOnly:    true,
	WhitelistHost:  "opennet.ru",
}

// Dialects maps dialect names to their definitions.
var Dialects = map[string]Dialect{
	Habr.Name:   Habr,
	Reddit.Name: Reddit,
}

// Renderer renders digest documents in one dialect.
type Renderer struct {
	dialect Dialect
	// attentionSources are origin names whose items get an attention
	// marker for manual review before publishing.
	attentionSources map[string]bool
}

// NewRenderer creates a Renderer. attentionSources may be nil.
func NewRenderer(dialect Dialect, attentionSources []string) *Renderer {
	set := make(map[string]bool, len(attentionSources))
	for _, s := range attentionSources {
		set[s] = true
	}
	return &Renderer{dialect: dialect, attentionSources: set}
}

// unit is one display entry: a single record or all included members of a
// similarity group, rendered once.
type unit struct {
	records []model.DigestRecord
}

func (u unit) lead() model.DigestRecord { return u.records[0] }

// tree is the bucket tree the document is emitted from. Category buckets
// within a type keep taxonomy order.
type tree struct {
	main   []unit
	byType map[model.ContentType]map[model.ContentCategory][]unit
	other  []unit
}

func newTree() *tree {
	t := &tree{byType: make(map[model.ContentType]map[model.ContentCategory][]unit)}
	for _, ct := range model.RenderTypeOrder {
		t.byType[ct] = make(map[model.ContentCategory][]unit)
	}
	return t
}

// place routes a unit by its lead record's fields. A content type or
// category outside the fixed taxonomy is taxonomy drift and fails loudly:
// silently dropping digest content is worse than stopping.
func (t *tree) place(u unit) error {
	lead := u.lead()
	if lead.IsMain != nil && *lead.IsMain {
		t.main = append(t.main, u)
		return nil
	}
	if lead.ContentType == model.TypeOther {
		t.other = append(t.other, u)
		return nil
	}
	buckets, ok := t.byType[lead.ContentType]
	if !ok {
		return fmt.Errorf("%w: record %d has content type %q", model.ErrTaxonomyDrift, lead.ID, lead.ContentType)
	}
	if lead.ContentCategory == nil {
		return fmt.Errorf("%w: record %d has no content category", model.ErrTaxonomyDrift, lead.ID)
	}
	cat := *lead.ContentCategory
	if _, err := model.ParseContentCategory(string(cat)); err != nil {
		return fmt.Errorf("%w: record %d has content category %q", model.ErrTaxonomyDrift, lead.ID, cat)
	}
	buckets[cat] = append(buckets[cat], u)
	return nil
}

// include applies the dialect's inclusion filter on top of the in_digest
// requirement.
func (r *Renderer) include(rec model.DigestRecord) bool {
	if !rec.RenderEligible() {
		return false
	}
	if !r.dialect.EnglishOnly {
		return true
	}
	if rec.Language == model.LanguageEnglish {
		return true
	}
	return r.dialect.WhitelistHost != "" && hostOf(rec.URL) != "" &&
		strings.HasSuffix(hostOf(rec.URL), r.dialect.WhitelistHost)
}

// Render produces the digest document for the record set and its
// similarity groups.
func (r *Renderer) Render(records []model.DigestRecord, groups []model.SimilarityGroup) (string, error) {
	byID := make(map[int64]model.DigestRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	t := newTree()
	consumed := make(map[int64]bool)

	for _, g := range groups {
		var included []model.DigestRecord
		for _, id := range g.MemberIDs {
			rec, ok := byID[id]
			if !ok {
				continue
			}
			consumed[id] = true
			if r.include(rec) {
				included = append(included, rec)
			}
		}
		if len(included) == 0 {
			continue
		}
		if err := t.place(unit{records: included}); err != nil {
			return "", err
		}
	}

	for _, rec := range records {
		if consumed[rec.ID] || !r.include(rec) {
			continue
		}
		if err := t.place(unit{records: []model.DigestRecord{rec}}); err != nil {
			return "", err
		}
	}

	return r.emit(t), nil
}

func (r *Renderer) emit(t *tree) string {
	var b strings.Builder

	if len(t.main) > 0 {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", r.dialect.MainHeader)
		for _, u := range t.main {
			lead := u.lead()
			label := r.dialect.TypeLabels[lead.ContentType]
			if lead.ContentCategory != nil {
				label = r.dialect.CategoryLabels[*lead.ContentCategory]
			}
			fmt.Fprintf(&b, "<h3>%s</h3>\n", r.cleanTitle(lead.Title))
			fmt.Fprintf(&b, "<p><i>%s</i></p>\n", label)
			fmt.Fprintf(&b, "<p>%s</p>\n", r.entry(u))
		}
	}

	for _, ct := range model.RenderTypeOrder {
		buckets := t.byType[ct]
		var cats []model.ContentCategory
		for _, cat := range model.ContentCategories {
			if len(buckets[cat]) > 0 {
				cats = append(cats, cat)
			}
		}
		if len(cats) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<h2>%s</h2>\n", r.dialect.TypeLabels[ct])
		for _, cat := range cats {
			fmt.Fprintf(&b, "<h3>%s</h3>\n", r.dialect.CategoryLabels[cat])
			r.emitBucket(&b, buckets[cat])
		}
	}

	if len(t.other) > 0 {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", r.dialect.OtherHeader)
		r.emitBucket(&b, t.other)
	}

	return b.String()
}

// emitBucket writes a single inline item, or an ordered list when the
// bucket holds more than one.
func (r *Renderer) emitBucket(b *strings.Builder, units []unit) {
	if len(units) == 1 {
		fmt.Fprintf(b, "<p>%s</p>\n", r.entry(units[0]))
		return
	}
	b.WriteString("<ol>\n")
	for _, u := range units {
		fmt.Fprintf(b, "<li>%s</li>\n", r.entry(u))
	}
	b.WriteString("</ol>\n")
}

// entry renders one display unit: the lead link first, additional group
// members as numbered links after it.
func (r *Renderer) entry(u unit) string {
	lead := u.lead()
	var b strings.Builder
	if r.attentionSources[lead.Source] {
		b.WriteString("(!) ")
	}
	b.WriteString(r.link(lead, r.cleanTitle(lead.Title)))
	if r.dialect.LanguageSuffix && lead.Language == model.LanguageEnglish {
		b.WriteString(" (en)")
	}
	for i, rec := range u.records[1:] {
		fmt.Fprintf(&b, " %s", r.link(rec, fmt.Sprintf("[%d]", i+2)))
	}
	return b.String()
}

func (r *Renderer) link(rec model.DigestRecord, text string) string {
	u := CleanURL(rec.URL)
	if !r.dialect.TitleAnchors {
		text = u
	}
	s := fmt.Sprintf(`<a href="%s">%s</a>`, u, html.EscapeString(text))
	if rec.AdditionalURL != "" {
		s += fmt.Sprintf(` (<a href="%s">%s</a>)`, CleanURL(rec.AdditionalURL), "mirror")
	}
	return s
}

var sourceTagRe = regexp.MustCompile(`^\[[^\[\]]+\]\s*`)

// cleanTitle unescapes HTML entities and strips the leading bracketed
// source tag some feeds prepend.
func (r *Renderer) cleanTitle(title string) string {
	return sourceTagRe.ReplaceAllString(html.UnescapeString(title), "")
}

// CleanURL strips known tracking decorations: rss=1 and utm_* query
// parameters and ftag fragments.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for key := range q {
		if strings.HasPrefix(key, "utm_") || (key == "rss" && q.Get(key) == "1") {
			q.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	if strings.HasPrefix(u.Fragment, "ftag=") {
		u.Fragment = ""
	}
	return u.String()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
