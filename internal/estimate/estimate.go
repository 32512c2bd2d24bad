// Package estimate turns crowd votes on digest records into batch
// acceptance candidates. The rules are a named policy because the majority
// cutoff and the trusted-voter set are business decisions that move.
package estimate

import "digest_curator/internal/model"

// DefaultMajorityThreshold is the vote share a state needs beyond to win.
const DefaultMajorityThreshold = 0.5

// Policy decides which records qualify for batch acceptance.
type Policy struct {
	// MajorityThreshold is the exclusive lower bound on the vote share.
	MajorityThreshold float64
	// TrustedVoters override the majority and supply field values. Order
	// matters: the first trusted voter with an estimation wins; votes from
	// later trusted voters are not aggregated.
	TrustedVoters []string
}

// NewPolicy builds a Policy with the default threshold.
func NewPolicy(trustedVoters []string) Policy {
	return Policy{MajorityThreshold: DefaultMajorityThreshold, TrustedVoters: trustedVoters}
}

func (p Policy) trusted(user string) bool {
	for _, v := range p.TrustedVoters {
		if v == user {
			return true
		}
	}
	return false
}

// stateCandidates returns indexes of records where the given state either
// holds a strict vote majority (with more than one vote cast) or was voted
// by a trusted voter.
func (p Policy) stateCandidates(records []model.DigestRecord, state model.State) []int {
	var out []int
	for i, r := range records {
		total := len(r.Estimations)
		if total == 0 {
			continue
		}
		votes := 0
		byTrusted := false
		for _, e := range r.Estimations {
			if e.State == state {
				votes++
				if p.trusted(e.User) {
					byTrusted = true
				}
			}
		}
		majority := total > 1 && float64(votes)/float64(total) > p.MajorityThreshold
		if majority || byTrusted {
			out = append(out, i)
		}
	}
	return out
}

// IgnoreCandidates returns indexes of records that qualify for bulk
// ignoring.
func (p Policy) IgnoreCandidates(records []model.DigestRecord) []int {
	return p.stateCandidates(records, model.StateIgnored)
}

// ApproveCandidates returns indexes of records that qualify for bulk
// approval into the digest.
func (p Policy) ApproveCandidates(records []model.DigestRecord) []int {
	return p.stateCandidates(records, model.StateInDigest)
}

// FieldProposal carries the trusted voter's values for record fields that
// are still unset. Nil members mean no proposal for that field.
type FieldProposal struct {
	RecordIndex     int
	IsMain          *bool
	ContentType     *model.ContentType
	ContentCategory *model.ContentCategory
}

// FieldCandidates returns, per record, the field values proposed by the
// first trusted voter that has an estimation. Only fields the record has
// not decided yet are proposed.
func (p Policy) FieldCandidates(records []model.DigestRecord) []FieldProposal {
	var out []FieldProposal
	for i, r := range records {
		est := p.firstTrustedEstimation(r.Estimations)
		if est == nil {
			continue
		}
		prop := FieldProposal{RecordIndex: i}
		if r.IsMain == nil && est.IsMain != nil {
			prop.IsMain = est.IsMain
		}
		if r.ContentType == model.TypeUnknown && est.ContentType != nil {
			prop.ContentType = est.ContentType
		}
		if r.ContentCategory == nil && est.ContentCategory != nil {
			prop.ContentCategory = est.ContentCategory
		}
		if prop.IsMain != nil || prop.ContentType != nil || prop.ContentCategory != nil {
			out = append(out, prop)
		}
	}
	return out
}

func (p Policy) firstTrustedEstimation(ests []model.Estimation) *model.Estimation {
	for _, voter := range p.TrustedVoters {
		for i := range ests {
			if ests[i].User == voter {
				return &ests[i]
			}
		}
	}
	return nil
}

// FilterExcluded drops the candidates the human excluded from a batch.
// Excluded indexes are 1-based positions in the candidate list, as entered
// at the prompt.
func FilterExcluded[T any](candidates []T, excluded []int) []T {
	if len(excluded) == 0 {
		return candidates
	}
	skip := make(map[int]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}
	var out []T
	for i, c := range candidates {
		if !skip[i+1] {
			out = append(out, c)
		}
	}
	return out
}
