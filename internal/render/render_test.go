package render

import (
	"errors"
	"strings"
	"testing"

	"digest_curator/internal/model"
)

func boolPtr(v bool) *bool { return &v }

func catPtr(v model.ContentCategory) *model.ContentCategory { return &v }

func inDigest(id int64, title, url string, ct model.ContentType, cc model.ContentCategory) model.DigestRecord {
	issue := 1
	return model.DigestRecord{
		ID:              id,
		Title:           title,
		URL:             url,
		Language:        model.LanguageRussian,
		State:           model.StateInDigest,
		DigestIssue:     &issue,
		ContentType:     ct,
		ContentCategory: catPtr(cc),
		IsMain:          boolPtr(false),
	}
}

func TestRenderSingleAndList(t *testing.T) {
	records := []model.DigestRecord{
		inDigest(1, "Вышел Linux 6.2", "https://example.org/1", model.TypeReleases, model.CategoryKnD),
		inDigest(2, "Уязвимость в sudo", "https://example.org/2", model.TypeNews, model.CategorySecurity),
		inDigest(3, "Уязвимость в curl", "https://example.org/3", model.TypeNews, model.CategorySecurity),
		inDigest(4, "Уязвимость в bash", "https://example.org/4", model.TypeNews, model.CategorySecurity),
	}

	r := NewRenderer(Habr, nil)
	doc, err := r.Render(records, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	// One-element bucket renders inline.
	if !strings.Contains(doc, "<p><a href=\"https://example.org/1\">Вышел Linux 6.2</a></p>") {
		t.Errorf("single item not rendered inline:\n%s", doc)
	}
	// Three-element bucket renders an ordered list, insertion order kept.
	if got := strings.Count(doc, "<li>"); got != 3 {
		t.Errorf("want 3 list items, got %d:\n%s", got, doc)
	}
	sudo := strings.Index(doc, "sudo")
	curl := strings.Index(doc, "curl")
	bash := strings.Index(doc, "bash")
	if !(sudo < curl && curl < bash) {
		t.Errorf("list items out of insertion order (%d, %d, %d)", sudo, curl, bash)
	}
	// Fixed section order: news before releases.
	news := strings.Index(doc, "<h2>Новости</h2>")
	releases := strings.Index(doc, "<h2>Релизы</h2>")
	if news == -1 || releases == -1 || news > releases {
		t.Errorf("section order wrong (news=%d releases=%d):\n%s", news, releases, doc)
	}
}

func TestRenderCompleteness(t *testing.T) {
	records := []model.DigestRecord{
		inDigest(1, "news one", "https://example.org/1", model.TypeNews, model.CategorySecurity),
		inDigest(2, "video one", "https://example.org/2", model.TypeVideos, model.CategoryDevOps),
		inDigest(3, "article one", "https://example.org/3", model.TypeArticles, model.CategoryWeb),
		inDigest(4, "release one", "https://example.org/4", model.TypeReleases, model.CategoryKnD),
	}

	r := NewRenderer(Habr, nil)
	doc, err := r.Render(records, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	for _, rec := range records {
		if got := strings.Count(doc, rec.URL); got != 1 {
			t.Errorf("record %d appears %d times, want exactly once", rec.ID, got)
		}
	}
}

func TestRenderExcludesUndecidedStates(t *testing.T) {
	ignored := inDigest(1, "ignored", "https://example.org/1", model.TypeNews, model.CategorySecurity)
	ignored.State = model.StateIgnored
	outdated := inDigest(2, "outdated", "https://example.org/2", model.TypeNews, model.CategorySecurity)
	outdated.State = model.StateOutdated
	kept := inDigest(3, "kept", "https://example.org/3", model.TypeNews, model.CategorySecurity)

	r := NewRenderer(Habr, nil)
	doc, err := r.Render([]model.DigestRecord{ignored, outdated, kept}, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if strings.Contains(doc, "example.org/1") || strings.Contains(doc, "example.org/2") {
		t.Errorf("non-in_digest records leaked into the document:\n%s", doc)
	}
	if !strings.Contains(doc, "example.org/3") {
		t.Errorf("in_digest record missing:\n%s", doc)
	}
}

func TestRenderGroupOnce(t *testing.T) {
	records := []model.DigestRecord{
		inDigest(1, "Linux 6.2 released", "https://example.org/1", model.TypeReleases, model.CategoryKnD),
		inDigest(2, "Линукс 6.2 вышел", "https://example.org/2", model.TypeReleases, model.CategoryKnD),
	}
	groups := []model.SimilarityGroup{{ID: 10, DigestIssue: 1, MemberIDs: []int64{1, 2}}}

	r := NewRenderer(Habr, nil)
	doc, err := r.Render(records, groups)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	// One entry, both links: the lead's title once, the second member as a
	// numbered link.
	if got := strings.Count(doc, "<li>"); got != 0 {
		t.Errorf("a single group must render inline, got %d list items:\n%s", got, doc)
	}
	if got := strings.Count(doc, "Linux 6.2 released"); got != 1 {
		t.Errorf("lead title appears %d times, want 1:\n%s", got, doc)
	}
	if !strings.Contains(doc, `<a href="https://example.org/2">[2]</a>`) {
		t.Errorf("second member link missing:\n%s", doc)
	}
}

func TestRenderGroupDisplayFromFirstInDigestMember(t *testing.T) {
	dup := inDigest(1, "duplicate entry", "https://example.org/1", model.TypeNews, model.CategorySecurity)
	dup.State = model.StateDuplicate
	lead := inDigest(2, "the kept entry", "https://example.org/2", model.TypeReleases, model.CategoryKnD)
	records := []model.DigestRecord{dup, lead}
	groups := []model.SimilarityGroup{{ID: 10, DigestIssue: 1, MemberIDs: []int64{1, 2}}}

	r := NewRenderer(Habr, nil)
	doc, err := r.Render(records, groups)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(doc, "<h2>Релизы</h2>") {
		t.Errorf("group must classify by first in_digest member:\n%s", doc)
	}
	if strings.Contains(doc, "example.org/1") {
		t.Errorf("non-in_digest group member leaked:\n%s", doc)
	}
}

func TestRenderMainSection(t *testing.T) {
	rec := inDigest(1, "Big story", "https://example.org/1", model.TypeNews, model.CategorySecurity)
	rec.IsMain = boolPtr(true)

	r := NewRenderer(Habr, nil)
	doc, err := r.Render([]model.DigestRecord{rec}, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(doc, "<h2>Главное</h2>") {
		t.Errorf("main section missing:\n%s", doc)
	}
	if !strings.Contains(doc, "<p><i>Безопасность</i></p>") {
		t.Errorf("main item category label missing:\n%s", doc)
	}
	if strings.Contains(doc, "<h2>Новости</h2>") {
		t.Errorf("main item must not also land in a type bucket:\n%s", doc)
	}
}

func TestRenderOtherSection(t *testing.T) {
	rec := model.DigestRecord{
		ID:          1,
		Title:       "Проект недели: fheroes2",
		URL:         "https://example.org/potw",
		State:       model.StateInDigest,
		ContentType: model.TypeOther,
		IsMain:      boolPtr(false),
	}

	r := NewRenderer(Habr, nil)
	doc, err := r.Render([]model.DigestRecord{rec}, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(doc, "<h2>Прочее</h2>") {
		t.Errorf("other section missing:\n%s", doc)
	}
}

func TestRenderTaxonomyDrift(t *testing.T) {
	tests := []struct {
		name string
		rec  model.DigestRecord
	}{
		{
			name: "unknown content type",
			rec: model.DigestRecord{
				ID: 1, Title: "x", URL: "https://example.org/1",
				State: model.StateInDigest, ContentType: model.TypeUnknown,
				IsMain: boolPtr(false),
			},
		},
		{
			name: "stale category value",
			rec: model.DigestRecord{
				ID: 2, Title: "y", URL: "https://example.org/2",
				State: model.StateInDigest, ContentType: model.TypeNews,
				ContentCategory: catPtr(model.ContentCategory("retired_value")),
				IsMain:          boolPtr(false),
			},
		},
		{
			name: "missing category",
			rec: model.DigestRecord{
				ID: 3, Title: "z", URL: "https://example.org/3",
				State: model.StateInDigest, ContentType: model.TypeNews,
				IsMain: boolPtr(false),
			},
		},
	}

	r := NewRenderer(Habr, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render([]model.DigestRecord{tt.rec}, nil)
			if !errors.Is(err, model.ErrTaxonomyDrift) {
				t.Fatalf("Render() error = %v, want taxonomy drift", err)
			}
		})
	}
}

func TestRenderDialects(t *testing.T) {
	ru := inDigest(1, "Русская новость", "https://example.org/ru", model.TypeNews, model.CategorySecurity)
	en := inDigest(2, "English news", "https://example.org/en", model.TypeNews, model.CategorySecurity)
	en.Language = model.LanguageEnglish
	whitelisted := inDigest(3, "Новость с opennet", "https://www.opennet.ru/opennews/art.shtml?num=1", model.TypeNews, model.CategorySecurity)
	records := []model.DigestRecord{ru, en, whitelisted}

	t.Run("habr includes everything with en markers", func(t *testing.T) {
		doc, err := NewRenderer(Habr, nil).Render(records, nil)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		for _, u := range []string{"example.org/ru", "example.org/en", "opennet.ru"} {
			if !strings.Contains(doc, u) {
				t.Errorf("habr dialect missing %s:\n%s", u, doc)
			}
		}
		if !strings.Contains(doc, "English news</a> (en)") {
			t.Errorf("habr dialect must mark English items:\n%s", doc)
		}
		if !strings.Contains(doc, "<h2>Новости</h2>") {
			t.Errorf("habr dialect must use Russian labels:\n%s", doc)
		}
	})

	t.Run("reddit filters to english plus whitelist", func(t *testing.T) {
		doc, err := NewRenderer(Reddit, nil).Render(records, nil)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		if strings.Contains(doc, "example.org/ru") {
			t.Errorf("reddit dialect must drop Russian records:\n%s", doc)
		}
		if !strings.Contains(doc, "example.org/en") || !strings.Contains(doc, "opennet.ru") {
			t.Errorf("reddit dialect missing expected records:\n%s", doc)
		}
		if strings.Contains(doc, "(en)") {
			t.Errorf("reddit dialect must not emit language markers:\n%s", doc)
		}
		// Bare URL anchor text.
		if !strings.Contains(doc, `<a href="https://example.org/en">https://example.org/en</a>`) {
			t.Errorf("reddit dialect must use bare URLs as anchor text:\n%s", doc)
		}
		if !strings.Contains(doc, "<h2>News</h2>") {
			t.Errorf("reddit dialect must use English labels:\n%s", doc)
		}
	})
}

func TestRenderTitleCleanup(t *testing.T) {
	rec := inDigest(1, "[opennet] Выпуск &quot;новой&quot; версии", "https://example.org/1", model.TypeNews, model.CategorySecurity)

	doc, err := NewRenderer(Habr, nil).Render([]model.DigestRecord{rec}, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if strings.Contains(doc, "[opennet]") {
		t.Errorf("source tag not stripped:\n%s", doc)
	}
	if !strings.Contains(doc, "Выпуск &#34;новой&#34; версии") {
		t.Errorf("entities not round-tripped through unescape/escape:\n%s", doc)
	}
}

func TestRenderAttentionMarker(t *testing.T) {
	rec := inDigest(1, "needs review", "https://example.org/1", model.TypeNews, model.CategorySecurity)
	rec.Source = "shadySource"

	doc, err := NewRenderer(Habr, []string{"shadySource"}).Render([]model.DigestRecord{rec}, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(doc, "(!) <a href=") {
		t.Errorf("attention marker missing:\n%s", doc)
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rss suffix",
			in:   "https://example.org/post?rss=1",
			want: "https://example.org/post",
		},
		{
			name: "utm parameters",
			in:   "https://example.org/post?utm_source=rss&utm_medium=feed&id=5",
			want: "https://example.org/post?id=5",
		},
		{
			name: "ftag fragment",
			in:   "https://example.org/post#ftag=ABC123",
			want: "https://example.org/post",
		},
		{
			name: "clean url untouched",
			in:   "https://example.org/post?id=5#section",
			want: "https://example.org/post?id=5#section",
		},
		{
			name: "rss parameter with other value kept",
			in:   "https://example.org/post?rss=full",
			want: "https://example.org/post?rss=full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanURL(tt.in); got != tt.want {
				t.Errorf("CleanURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
