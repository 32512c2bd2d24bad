package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"digest_curator/internal/classify"
	"digest_curator/internal/estimate"
	"digest_curator/internal/fngs"
	"digest_curator/internal/keywords"
	"digest_curator/internal/model"
	"digest_curator/internal/similar"
)

type fakeStore struct {
	records []model.DigestRecord
	patches []fngs.RecordPatch
}

func (f *fakeStore) FetchNewRecords(_ context.Context, _ bool) ([]model.DigestRecord, error) {
	return f.records, nil
}

func (f *fakeStore) PatchRecord(_ context.Context, patch fngs.RecordPatch) error {
	f.patches = append(f.patches, patch)
	return nil
}

type emptyRecordSource struct{}

func (emptyRecordSource) FetchSimilarRecords(context.Context, int, model.ContentType, model.ContentCategory) ([]model.DigestRecord, error) {
	return nil, nil
}

type emptyGroupStore struct{}

func (emptyGroupStore) FetchSimilarGroups(context.Context, int) ([]model.SimilarityGroup, error) {
	return nil, nil
}

func (emptyGroupStore) CreateSimilarGroup(context.Context, *model.SimilarityGroup) error { return nil }

func (emptyGroupStore) PatchSimilarGroup(context.Context, int64, []int64) error { return nil }

// scriptPrompter replays queued answers and records what it was asked.
type scriptPrompter struct {
	bools      []bool
	enums      []string
	ints       []int
	indexes    []int
	exclusions [][]int
	questions  []string
}

func (p *scriptPrompter) AskBool(q string) (bool, error) {
	p.questions = append(p.questions, q)
	v := p.bools[0]
	p.bools = p.bools[1:]
	return v, nil
}

func (p *scriptPrompter) AskEnum(q string, _ []string) (string, error) {
	p.questions = append(p.questions, q)
	v := p.enums[0]
	p.enums = p.enums[1:]
	return v, nil
}

func (p *scriptPrompter) AskIndex(q string, _ []string) (int, error) {
	p.questions = append(p.questions, q)
	v := p.indexes[0]
	p.indexes = p.indexes[1:]
	return v, nil
}

func (p *scriptPrompter) AskInt(q string) (int, error) {
	p.questions = append(p.questions, q)
	v := p.ints[0]
	p.ints = p.ints[1:]
	return v, nil
}

func (p *scriptPrompter) AskExclusions(q string, _ int) ([]int, error) {
	p.questions = append(p.questions, q)
	v := p.exclusions[0]
	p.exclusions = p.exclusions[1:]
	return v, nil
}

func (p *scriptPrompter) Say(string, ...any) {}

func newTestWorkflow(store *fakeStore, p *scriptPrompter, trusted []string) *Workflow {
	index := keywords.NewIndex([]model.Keyword{
		{Name: "Linux", Category: model.CategoryKnD},
	})
	resolver := similar.NewResolver(emptyRecordSource{}, emptyGroupStore{}, p)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, nil, classify.New(index), resolver, estimate.NewPolicy(trusted), p, log)
}

func pending(id int64, title, url string) model.DigestRecord {
	return model.DigestRecord{
		ID:        id,
		Title:     title,
		URL:       url,
		Language:  model.LanguageEnglish,
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRunClassifiesRecordWithAcceptedGuesses(t *testing.T) {
	store := &fakeStore{records: []model.DigestRecord{
		pending(9, "Linux Kernel 6.2 released", "https://example.org/kernel"),
	}}
	p := &scriptPrompter{
		enums: []string{"in_digest"},
		ints:  []int{42},
		// is_main=no, accept guessed type, accept guessed category.
		bools: []bool{false, true, true},
	}

	w := newTestWorkflow(store, p, nil)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(store.patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(store.patches))
	}
	issue := 42
	state := model.StateInDigest
	ct := model.TypeReleases
	cc := model.CategoryKnD
	main := false
	want := fngs.RecordPatch{
		ID:              9,
		State:           &state,
		DigestIssue:     &issue,
		IsMain:          &main,
		ContentType:     &ct,
		ContentCategory: &cc,
	}
	if diff := cmp.Diff(want, store.patches[0]); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestRunIgnoredRecordSkipsClassification(t *testing.T) {
	store := &fakeStore{records: []model.DigestRecord{
		pending(9, "Some noise", "https://example.org/noise"),
	}}
	p := &scriptPrompter{enums: []string{"ignored"}}

	w := newTestWorkflow(store, p, nil)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(store.patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(store.patches))
	}
	state := model.StateIgnored
	want := fngs.RecordPatch{ID: 9, State: &state}
	if diff := cmp.Diff(want, store.patches[0]); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
	if len(p.questions) != 1 {
		t.Errorf("ignored record must only be asked its state, got %v", p.questions)
	}
}

func TestRunDigestIssueAskedOnce(t *testing.T) {
	store := &fakeStore{records: []model.DigestRecord{
		pending(1, "Linux Kernel 6.2 released", "https://example.org/a"),
		pending(2, "Linux Kernel 6.1.8 released", "https://example.org/b"),
	}}
	p := &scriptPrompter{
		enums: []string{"in_digest", "in_digest"},
		ints:  []int{42},
		bools: []bool{false, true, true, false, true, true},
	}

	w := newTestWorkflow(store, p, nil)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(p.ints) != 0 {
		t.Fatal("second record must reuse the first digest issue answer")
	}
	for _, patch := range store.patches {
		if patch.DigestIssue == nil || *patch.DigestIssue != 42 {
			t.Errorf("patch %d: digest issue = %v, want 42", patch.ID, patch.DigestIssue)
		}
	}
}

func TestRunEstimationBatchIgnore(t *testing.T) {
	voted := pending(1, "Voted down", "https://example.org/down")
	voted.Estimations = []model.Estimation{
		{User: "alice", State: model.StateIgnored},
		{User: "bob", State: model.StateIgnored},
	}
	store := &fakeStore{records: []model.DigestRecord{voted}}
	p := &scriptPrompter{exclusions: [][]int{nil}}

	w := newTestWorkflow(store, p, nil)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(store.patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(store.patches))
	}
	state := model.StateIgnored
	want := fngs.RecordPatch{ID: 1, State: &state}
	if diff := cmp.Diff(want, store.patches[0]); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestRunEstimationBatchExclusionFallsThrough(t *testing.T) {
	voted := pending(1, "Contested", "https://example.org/contested")
	voted.Estimations = []model.Estimation{
		{User: "alice", State: model.StateIgnored},
		{User: "bob", State: model.StateIgnored},
	}
	store := &fakeStore{records: []model.DigestRecord{voted}}
	p := &scriptPrompter{
		exclusions: [][]int{{1}},
		enums:      []string{"outdated"},
	}

	w := newTestWorkflow(store, p, nil)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(store.patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(store.patches))
	}
	state := model.StateOutdated
	want := fngs.RecordPatch{ID: 1, State: &state}
	if diff := cmp.Diff(want, store.patches[0]); diff != "" {
		t.Errorf("excluded record must be asked individually (-want +got):\n%s", diff)
	}
}

func TestRunTrustedFieldBatch(t *testing.T) {
	main := true
	ct := model.TypeNews
	voted := pending(1, "Trusted pick", "https://example.org/pick")
	voted.State = model.StateInDigest
	issue := 42
	voted.DigestIssue = &issue
	voted.Estimations = []model.Estimation{
		{User: "carol", State: model.StateInDigest, IsMain: &main, ContentType: &ct},
	}
	store := &fakeStore{records: []model.DigestRecord{voted}}
	p := &scriptPrompter{
		exclusions: [][]int{nil},
		// Accept guessed category from the keyword index? No keyword
		// matches "Trusted pick", so the full enum is asked instead.
		enums: []string{"misc"},
	}

	w := newTestWorkflow(store, p, []string{"carol"})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(store.patches) != 2 {
		t.Fatalf("got %d patches, want 2 (field batch + final)", len(store.patches))
	}
	fieldPatch := store.patches[0]
	if fieldPatch.IsMain == nil || !*fieldPatch.IsMain {
		t.Errorf("field patch is_main = %v, want true", fieldPatch.IsMain)
	}
	if fieldPatch.ContentType == nil || *fieldPatch.ContentType != model.TypeNews {
		t.Errorf("field patch content_type = %v, want news", fieldPatch.ContentType)
	}
	final := store.patches[1]
	if final.ContentCategory == nil || *final.ContentCategory != model.CategoryMisc {
		t.Errorf("final patch content_category = %v, want misc", final.ContentCategory)
	}
}

func TestRunNothingToDo(t *testing.T) {
	store := &fakeStore{}
	w := newTestWorkflow(store, &scriptPrompter{}, nil)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(store.patches) != 0 {
		t.Errorf("no records must mean no patches, got %v", store.patches)
	}
}
