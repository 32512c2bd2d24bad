// Package similar decides whether a freshly classified record duplicates an
// event already covered by other records of the same digest issue.
package similar

import (
	"context"
	"fmt"

	"digest_curator/internal/model"
	"digest_curator/internal/prompt"
)

// RecordSource queries already classified records that could duplicate the
// target. An empty result means nothing similar was found, never an error.
type RecordSource interface {
	FetchSimilarRecords(ctx context.Context, issue int, ct model.ContentType, cc model.ContentCategory) ([]model.DigestRecord, error)
}

// GroupStore persists similarity group membership.
type GroupStore interface {
	FetchSimilarGroups(ctx context.Context, issue int) ([]model.SimilarityGroup, error)
	CreateSimilarGroup(ctx context.Context, g *model.SimilarityGroup) error
	PatchSimilarGroup(ctx context.Context, id int64, memberIDs []int64) error
}

// Candidates is the partition of known records into existing groups and
// standalone records, in discovery order.
type Candidates struct {
	Groups     []GroupCandidate
	Standalone []model.DigestRecord
}

// GroupCandidate is an existing group plus the known member records that
// surfaced it, used for display.
type GroupCandidate struct {
	Group   model.SimilarityGroup
	Members []model.DigestRecord
}

// Empty reports whether there is nothing to propose.
func (c Candidates) Empty() bool {
	return len(c.Groups) == 0 && len(c.Standalone) == 0
}

// Partition splits records sharing the target's (issue, type, category)
// into candidate groups and standalone candidates. Records already grouped
// fold into one candidate per group id; the target itself is skipped.
func Partition(records []model.DigestRecord, groups []model.SimilarityGroup, targetID int64) Candidates {
	var c Candidates
	groupIdx := make(map[int64]int)
	for _, rec := range records {
		if rec.ID == targetID {
			continue
		}
		var owner *model.SimilarityGroup
		for i := range groups {
			if groups[i].Contains(rec.ID) {
				owner = &groups[i]
				break
			}
		}
		if owner == nil {
			c.Standalone = append(c.Standalone, rec)
			continue
		}
		if i, ok := groupIdx[owner.ID]; ok {
			c.Groups[i].Members = append(c.Groups[i].Members, rec)
			continue
		}
		groupIdx[owner.ID] = len(c.Groups)
		c.Groups = append(c.Groups, GroupCandidate{Group: *owner, Members: []model.DigestRecord{rec}})
	}
	return c
}

// Resolver runs the duplicate-merge protocol for one record at a time.
type Resolver struct {
	records  RecordSource
	groups   GroupStore
	prompter prompt.Prompter
}

// NewResolver creates a Resolver.
func NewResolver(records RecordSource, groups GroupStore, prompter prompt.Prompter) *Resolver {
	return &Resolver{records: records, groups: groups, prompter: prompter}
}

// Resolve proposes at most one merge decision for the target record and
// applies the human's answer: joining an existing group, creating a new
// group with a standalone candidate, or leaving the record alone. It
// returns true when the record ended up in a group.
//
// Joining only ever appends member ids, so a record can never be pulled
// out of another group here.
func (r *Resolver) Resolve(ctx context.Context, target *model.DigestRecord) (bool, error) {
	if target.DigestIssue == nil || target.ContentCategory == nil {
		return false, nil
	}
	issue := *target.DigestIssue

	records, err := r.records.FetchSimilarRecords(ctx, issue, target.ContentType, *target.ContentCategory)
	if err != nil {
		return false, fmt.Errorf("fetch similar records: %w", err)
	}
	groups, err := r.groups.FetchSimilarGroups(ctx, issue)
	if err != nil {
		return false, fmt.Errorf("fetch similarity groups: %w", err)
	}

	cands := Partition(records, groups, target.ID)
	if cands.Empty() {
		return false, nil
	}

	options := make([]string, 0, len(cands.Groups)+len(cands.Standalone))
	for _, gc := range cands.Groups {
		options = append(options, fmt.Sprintf("group #%d: %s", gc.Group.ID, gc.Members[0].Title))
	}
	for _, rec := range cands.Standalone {
		options = append(options, rec.Title)
	}

	choice := 0
	if len(options) == 1 {
		same, err := r.prompter.AskBool(fmt.Sprintf("Is %q the same as %q?", target.Title, options[0]))
		if err != nil {
			return false, err
		}
		if same {
			choice = 1
		}
	} else {
		choice, err = r.prompter.AskIndex(fmt.Sprintf("Which of these covers the same event as %q?", target.Title), options)
		if err != nil {
			return false, err
		}
	}
	if choice == 0 {
		return false, nil
	}

	if choice <= len(cands.Groups) {
		gc := cands.Groups[choice-1]
		members := append(append([]int64{}, gc.Group.MemberIDs...), target.ID)
		if err := r.groups.PatchSimilarGroup(ctx, gc.Group.ID, members); err != nil {
			return false, fmt.Errorf("join group %d: %w", gc.Group.ID, err)
		}
		return true, nil
	}

	other := cands.Standalone[choice-1-len(cands.Groups)]
	g := &model.SimilarityGroup{
		DigestIssue: issue,
		MemberIDs:   []int64{other.ID, target.ID},
	}
	if err := r.groups.CreateSimilarGroup(ctx, g); err != nil {
		return false, fmt.Errorf("create group: %w", err)
	}
	return true, nil
}
