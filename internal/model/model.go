// Package model defines the domain types used across the application.
package model

import (
	"errors"
	"time"
)

// ErrTaxonomyDrift reports a stored value the rest of the pipeline does not
// know how to place. It is fatal: dropping the record silently would lose
// digest content.
var ErrTaxonomyDrift = errors.New("taxonomy drift")

// DigestRecord is one candidate item for a digest issue.
type DigestRecord struct {
	ID            int64
	Title         string
	URL           string
	AdditionalURL string
	Source        string
	Language      Language
	Timestamp     time.Time

	State           State
	DigestIssue     *int
	ContentType     ContentType
	ContentCategory *ContentCategory
	IsMain          *bool

	Keywords    []Keyword
	Estimations []Estimation
}

// Decided reports whether all curation decisions for the record are made.
func (r *DigestRecord) Decided() bool {
	if r.State == StateUnknown {
		return false
	}
	if r.State != StateInDigest {
		return true
	}
	if r.DigestIssue == nil || r.IsMain == nil {
		return false
	}
	if r.ContentType == TypeUnknown {
		return false
	}
	if r.ContentType.NeedsCategory() && r.ContentCategory == nil {
		return false
	}
	return true
}

// RenderEligible reports whether the record may appear in a rendered document.
func (r *DigestRecord) RenderEligible() bool {
	return r.State == StateInDigest
}

// SimilarityGroup is a set of records judged to describe the same event
// within one digest issue. Members keep store order; the first member with
// state in_digest supplies the group's display attributes.
type SimilarityGroup struct {
	ID          int64
	DigestIssue int
	MemberIDs   []int64
}

// Contains reports whether the record id is a member of the group.
func (g *SimilarityGroup) Contains(id int64) bool {
	for _, m := range g.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Keyword is one classification trigger word.
// Generic keywords only hint a category; specific ones are also eligible
// for version-pattern release detection. Proprietary keywords come from the
// record's own source rather than the shared list.
type Keyword struct {
	Name        string
	Category    ContentCategory
	Generic     bool
	Proprietary bool
}

// Estimation is one crowd vote proposing field values for a record.
type Estimation struct {
	User            string
	State           State
	IsMain          *bool
	ContentType     *ContentType
	ContentCategory *ContentCategory
}
