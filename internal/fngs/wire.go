package fngs

import (
	"fmt"
	"strings"
	"time"

	"digest_curator/internal/model"
)

const wireTimeLayout = "2006-01-02T15:04:05Z"

// recordDTO is the wire shape of one digest record. Enum values round-trip
// by name; the server historically sends them in either case.
type recordDTO struct {
	ID              int64           `json:"id"`
	DT              string          `json:"dt"`
	Title           string          `json:"title"`
	URL             string          `json:"url"`
	AdditionalURL   string          `json:"additional_url"`
	Source          string          `json:"source"`
	Language        string          `json:"language"`
	State           string          `json:"state"`
	DigestIssue     *int            `json:"digest_issue"`
	ContentType     string          `json:"content_type"`
	ContentCategory *string         `json:"content_category"`
	IsMain          *bool           `json:"is_main"`
	Keywords        []keywordDTO    `json:"title_keywords"`
	Estimations     []estimationDTO `json:"estimations"`
}

type keywordDTO struct {
	Name            string `json:"name"`
	ContentCategory string `json:"content_category"`
	IsGeneric       bool   `json:"is_generic"`
	Proprietary     bool   `json:"proprietary"`
}

type estimationDTO struct {
	User            string  `json:"user"`
	State           string  `json:"state"`
	IsMain          *bool   `json:"is_main"`
	ContentType     *string `json:"content_type"`
	ContentCategory *string `json:"content_category"`
}

type groupDTO struct {
	ID            int64   `json:"id"`
	DigestIssue   int     `json:"digest_issue"`
	DigestRecords []int64 `json:"digest_records"`
}

func decodeRecords(dtos []recordDTO) ([]model.DigestRecord, error) {
	records := make([]model.DigestRecord, 0, len(dtos))
	for _, d := range dtos {
		rec, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", d.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (d recordDTO) toModel() (model.DigestRecord, error) {
	rec := model.DigestRecord{
		ID:            d.ID,
		Title:         d.Title,
		URL:           d.URL,
		AdditionalURL: d.AdditionalURL,
		Source:        d.Source,
		DigestIssue:   d.DigestIssue,
		IsMain:        d.IsMain,
	}

	if d.DT != "" {
		ts, err := time.Parse(wireTimeLayout, d.DT)
		if err != nil {
			return rec, fmt.Errorf("parse dt %q: %w", d.DT, err)
		}
		rec.Timestamp = ts
	}

	switch strings.ToLower(d.Language) {
	case "english", "":
		rec.Language = model.LanguageEnglish
	case "russian":
		rec.Language = model.LanguageRussian
	default:
		return rec, fmt.Errorf("unknown language %q", d.Language)
	}

	state, err := model.ParseState(lowerOr(d.State, string(model.StateUnknown)))
	if err != nil {
		return rec, err
	}
	rec.State = state

	ct, err := model.ParseContentType(lowerOr(d.ContentType, string(model.TypeUnknown)))
	if err != nil {
		return rec, err
	}
	rec.ContentType = ct

	if d.ContentCategory != nil && *d.ContentCategory != "" {
		cc, err := model.ParseContentCategory(strings.ToLower(*d.ContentCategory))
		if err != nil {
			return rec, err
		}
		rec.ContentCategory = &cc
	}

	for _, k := range d.Keywords {
		cat, err := model.ParseContentCategory(strings.ToLower(k.ContentCategory))
		if err != nil {
			return rec, fmt.Errorf("keyword %q: %w", k.Name, err)
		}
		rec.Keywords = append(rec.Keywords, model.Keyword{
			Name:        k.Name,
			Category:    cat,
			Generic:     k.IsGeneric,
			Proprietary: k.Proprietary,
		})
	}

	for _, e := range d.Estimations {
		est := model.Estimation{User: e.User, IsMain: e.IsMain}
		st, err := model.ParseState(lowerOr(e.State, string(model.StateUnknown)))
		if err != nil {
			return rec, fmt.Errorf("estimation by %q: %w", e.User, err)
		}
		est.State = st
		if e.ContentType != nil {
			ct, err := model.ParseContentType(strings.ToLower(*e.ContentType))
			if err != nil {
				return rec, fmt.Errorf("estimation by %q: %w", e.User, err)
			}
			est.ContentType = &ct
		}
		if e.ContentCategory != nil {
			cc, err := model.ParseContentCategory(strings.ToLower(*e.ContentCategory))
			if err != nil {
				return rec, fmt.Errorf("estimation by %q: %w", e.User, err)
			}
			est.ContentCategory = &cc
		}
		rec.Estimations = append(rec.Estimations, est)
	}

	return rec, nil
}

func lowerOr(s, def string) string {
	if s == "" {
		return def
	}
	return strings.ToLower(s)
}
