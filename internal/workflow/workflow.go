// Package workflow sequences one curation session: estimation batches
// first, then record-by-record interactive classification with similarity
// resolution, persisting every decision immediately.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"digest_curator/internal/classify"
	"digest_curator/internal/estimate"
	"digest_curator/internal/fngs"
	"digest_curator/internal/model"
	"digest_curator/internal/prompt"
	"digest_curator/internal/similar"
	"digest_curator/internal/storage"
)

// Store is the slice of the remote store the workflow mutates.
type Store interface {
	FetchNewRecords(ctx context.Context, botOnly bool) ([]model.DigestRecord, error)
	PatchRecord(ctx context.Context, patch fngs.RecordPatch) error
}

// Workflow drives the curation of one batch of records.
type Workflow struct {
	store      Store
	backups    storage.Storage
	classifier *classify.Classifier
	resolver   *similar.Resolver
	policy     estimate.Policy
	prompter   prompt.Prompter
	log        *slog.Logger

	// BotOnly limits the session to records harvested by the bot.
	BotOnly bool

	// currentIssue is reused for every record after the first answer.
	currentIssue *int
}

// New creates a Workflow.
func New(store Store, backups storage.Storage, classifier *classify.Classifier, resolver *similar.Resolver, policy estimate.Policy, prompter prompt.Prompter, log *slog.Logger) *Workflow {
	return &Workflow{
		store:      store,
		backups:    backups,
		classifier: classifier,
		resolver:   resolver,
		policy:     policy,
		prompter:   prompter,
		log:        log,
	}
}

// Run fetches the pending records and curates them one at a time. Each
// decision is persisted before the next question; rerunning after an
// interruption resumes from whatever is still undecided on the server.
func (w *Workflow) Run(ctx context.Context) error {
	records, err := w.store.FetchNewRecords(ctx, w.BotOnly)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}
	if len(records) == 0 {
		w.prompter.Say("Nothing left to curate")
		return nil
	}

	left := 0
	for i := range records {
		if !records[i].Decided() {
			left++
		}
	}
	w.prompter.Say("%d record(s) left to process", left)

	if err := w.runEstimationBatches(ctx, records); err != nil {
		return err
	}

	for i := range records {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if records[i].Decided() {
			continue
		}
		if err := w.curateRecord(ctx, &records[i]); err != nil {
			return err
		}
		w.snapshot(ctx, records)
	}
	return nil
}

// runEstimationBatches reconciles crowd votes in three batches: bulk
// ignore, bulk approve, and trusted field values. Excluded records fall
// through to individual classification.
func (w *Workflow) runEstimationBatches(ctx context.Context, records []model.DigestRecord) error {
	undecided := func(i int) bool { return records[i].State == model.StateUnknown }

	ignores := filterIdx(w.policy.IgnoreCandidates(records), undecided)
	if len(ignores) > 0 {
		w.prompter.Say("Crowd votes propose ignoring %d record(s):", len(ignores))
		for i, idx := range ignores {
			w.prompter.Say("%d. %s", i+1, records[idx].Title)
		}
		excluded, err := w.prompter.AskExclusions("Ignore these records?", len(ignores))
		if err != nil {
			return err
		}
		for _, idx := range estimate.FilterExcluded(ignores, excluded) {
			records[idx].State = model.StateIgnored
			state := model.StateIgnored
			if err := w.store.PatchRecord(ctx, fngs.RecordPatch{ID: records[idx].ID, State: &state}); err != nil {
				return err
			}
		}
		w.snapshot(ctx, records)
	}

	approves := filterIdx(w.policy.ApproveCandidates(records), undecided)
	if len(approves) > 0 {
		w.prompter.Say("Crowd votes propose approving %d record(s):", len(approves))
		for i, idx := range approves {
			w.prompter.Say("%d. %s", i+1, records[idx].Title)
		}
		excluded, err := w.prompter.AskExclusions("Approve these records?", len(approves))
		if err != nil {
			return err
		}
		for _, idx := range estimate.FilterExcluded(approves, excluded) {
			records[idx].State = model.StateInDigest
			state := model.StateInDigest
			if err := w.store.PatchRecord(ctx, fngs.RecordPatch{ID: records[idx].ID, State: &state}); err != nil {
				return err
			}
		}
		w.snapshot(ctx, records)
	}

	fields := w.policy.FieldCandidates(records)
	if len(fields) > 0 {
		w.prompter.Say("Trusted votes propose field values for %d record(s):", len(fields))
		for i, prop := range fields {
			w.prompter.Say("%d. %s: %s", i+1, records[prop.RecordIndex].Title, describeProposal(prop))
		}
		excluded, err := w.prompter.AskExclusions("Accept these field values?", len(fields))
		if err != nil {
			return err
		}
		for _, prop := range estimate.FilterExcluded(fields, excluded) {
			rec := &records[prop.RecordIndex]
			patch := fngs.RecordPatch{ID: rec.ID}
			if prop.IsMain != nil {
				rec.IsMain = prop.IsMain
				patch.IsMain = prop.IsMain
			}
			if prop.ContentType != nil {
				rec.ContentType = *prop.ContentType
				patch.ContentType = prop.ContentType
			}
			if prop.ContentCategory != nil {
				rec.ContentCategory = prop.ContentCategory
				patch.ContentCategory = prop.ContentCategory
			}
			if err := w.store.PatchRecord(ctx, patch); err != nil {
				return err
			}
		}
		w.snapshot(ctx, records)
	}

	return nil
}

// curateRecord walks one record through the remaining decisions and
// persists them in a single patch, after any similarity resolution.
func (w *Workflow) curateRecord(ctx context.Context, rec *model.DigestRecord) error {
	w.prompter.Say("Processing %q (%s)", rec.Title, rec.URL)
	w.log.Info("curating record", "id", rec.ID, "title", rec.Title)

	patch := fngs.RecordPatch{ID: rec.ID}

	if rec.State == model.StateUnknown {
		state, err := w.askState(rec)
		if err != nil {
			return err
		}
		rec.State = state
		patch.State = &state
	}

	if rec.State != model.StateInDigest {
		return w.patchAndLog(ctx, rec, patch)
	}

	if rec.DigestIssue == nil {
		if w.currentIssue == nil {
			issue, err := w.prompter.AskInt(fmt.Sprintf("Digest issue for %q", rec.Title))
			if err != nil {
				return err
			}
			w.currentIssue = &issue
		}
		rec.DigestIssue = w.currentIssue
		patch.DigestIssue = w.currentIssue
	}

	if rec.IsMain == nil {
		main, err := w.prompter.AskBool(fmt.Sprintf("Is %q a main record?", rec.Title))
		if err != nil {
			return err
		}
		rec.IsMain = &main
		patch.IsMain = &main
	}

	if rec.ContentType == model.TypeUnknown {
		ct, err := w.askContentType(rec)
		if err != nil {
			return err
		}
		rec.ContentType = ct
		patch.ContentType = &ct
	}

	if rec.ContentType.NeedsCategory() && rec.ContentCategory == nil {
		cc, err := w.askContentCategory(rec)
		if err != nil {
			return err
		}
		rec.ContentCategory = &cc
		patch.ContentCategory = &cc
	}

	if rec.ContentType.NeedsCategory() {
		joined, err := w.resolver.Resolve(ctx, rec)
		if err != nil {
			return err
		}
		if joined {
			w.log.Info("record joined a similarity group", "id", rec.ID)
		}
	}

	return w.patchAndLog(ctx, rec, patch)
}

func (w *Workflow) patchAndLog(ctx context.Context, rec *model.DigestRecord, patch fngs.RecordPatch) error {
	if err := w.store.PatchRecord(ctx, patch); err != nil {
		return fmt.Errorf("persist record %d: %w", rec.ID, err)
	}
	w.log.Info("record persisted", "id", rec.ID, "state", rec.State)
	return nil
}

func (w *Workflow) askState(rec *model.DigestRecord) (model.State, error) {
	options := make([]string, 0, len(model.States)-1)
	for _, s := range model.States {
		if s != model.StateUnknown {
			options = append(options, string(s))
		}
	}
	answer, err := w.prompter.AskEnum(fmt.Sprintf("State for %q", rec.Title), options)
	if err != nil {
		return "", err
	}
	return model.ParseState(answer)
}

// askContentType proposes the classifier's guess for yes/no confirmation
// and falls back to the full enum on rejection or on no guess.
func (w *Workflow) askContentType(rec *model.DigestRecord) (model.ContentType, error) {
	if guess, ok := w.classifier.GuessContentType(rec.Title, rec.URL); ok {
		accepted, err := w.prompter.AskBool(fmt.Sprintf("Content type of %q looks like %q, accept?", rec.Title, guess))
		if err != nil {
			return "", err
		}
		if accepted {
			return guess, nil
		}
	}
	options := make([]string, 0, len(model.ContentTypes)-1)
	for _, ct := range model.ContentTypes {
		if ct != model.TypeUnknown {
			options = append(options, string(ct))
		}
	}
	answer, err := w.prompter.AskEnum(fmt.Sprintf("Content type for %q", rec.Title), options)
	if err != nil {
		return "", err
	}
	return model.ParseContentType(answer)
}

// askContentCategory confirms a single classifier candidate with yes/no,
// offers an indexed pick for several, and falls back to the full enum.
func (w *Workflow) askContentCategory(rec *model.DigestRecord) (model.ContentCategory, error) {
	candidates, matched := w.classifier.GuessContentCategory(rec.Title, rec.URL)

	switch len(candidates) {
	case 0:
	case 1:
		cand := candidates[0]
		w.prompter.Say("Matched keywords: %s", strings.Join(matched[cand], ", "))
		accepted, err := w.prompter.AskBool(fmt.Sprintf("Category of %q looks like %q, accept?", rec.Title, cand))
		if err != nil {
			return "", err
		}
		if accepted {
			return cand, nil
		}
	default:
		options := make([]string, len(candidates))
		for i, cand := range candidates {
			options[i] = fmt.Sprintf("%s (keywords: %s)", cand, strings.Join(matched[cand], ", "))
		}
		idx, err := w.prompter.AskIndex(fmt.Sprintf("Category for %q", rec.Title), options)
		if err != nil {
			return "", err
		}
		if idx > 0 {
			return candidates[idx-1], nil
		}
	}

	options := make([]string, len(model.ContentCategories))
	for i, cc := range model.ContentCategories {
		options[i] = string(cc)
	}
	answer, err := w.prompter.AskEnum(fmt.Sprintf("Category for %q", rec.Title), options)
	if err != nil {
		return "", err
	}
	return model.ParseContentCategory(answer)
}

// snapshot writes a local backup of the session. Failures are logged, not
// fatal: the remote store already has every persisted decision.
func (w *Workflow) snapshot(ctx context.Context, records []model.DigestRecord) {
	if w.backups == nil {
		return
	}
	issue := 0
	if w.currentIssue != nil {
		issue = *w.currentIssue
	}
	if _, err := w.backups.SaveSnapshot(ctx, issue, records); err != nil {
		w.log.Error("save backup snapshot", "error", err)
	}
}

func describeProposal(p estimate.FieldProposal) string {
	var parts []string
	if p.IsMain != nil {
		parts = append(parts, fmt.Sprintf("is_main=%v", *p.IsMain))
	}
	if p.ContentType != nil {
		parts = append(parts, fmt.Sprintf("content_type=%s", *p.ContentType))
	}
	if p.ContentCategory != nil {
		parts = append(parts, fmt.Sprintf("content_category=%s", *p.ContentCategory))
	}
	return strings.Join(parts, ", ")
}

func filterIdx(idxs []int, keep func(int) bool) []int {
	var out []int
	for _, i := range idxs {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
