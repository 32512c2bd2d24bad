// Package fngs is the client for the remote gathering server that owns
// digest records, similarity groups, and the keyword list.
//
// The client logs in once per session and carries the bearer token on every
// request. Transient failures are retried with bounded exponential backoff;
// the caller only ever sees success or a final hard failure.
package fngs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"digest_curator/internal/model"
)

const (
	maxBodySize  = 10 * 1024 * 1024
	maxRetries   = 3
	retryBackoff = 500 * time.Millisecond
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one gathering server.
type Client struct {
	client HTTPClient
	base   string
	token  string
}

// New creates a Client for the server at host:port.
func New(client HTTPClient, host string, port int) *Client {
	return &Client{
		client: client,
		base:   fmt.Sprintf("http://%s:%d", host, port),
	}
}

// Login obtains the session bearer token.
func (c *Client) Login(ctx context.Context, user, password string) error {
	payload, err := json.Marshal(map[string]string{"username": user, "password": password})
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	var res struct {
		Access string `json:"access"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/token/", payload, &res); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if res.Access == "" {
		return fmt.Errorf("login: empty access token")
	}
	c.token = res.Access
	return nil
}

// FetchNewRecords returns records that still need curation. With botOnly
// set, only records harvested by the gathering bot are returned.
func (c *Client) FetchNewRecords(ctx context.Context, botOnly bool) ([]model.DigestRecord, error) {
	path := "/api/v1/new-digest-records/"
	if botOnly {
		path += "?from-bot=true"
	}
	var dtos []recordDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch new records: %w", err)
	}
	return decodeRecords(dtos)
}

// FetchIssueRecords returns every record assigned to a digest issue,
// transparently following pagination.
func (c *Client) FetchIssueRecords(ctx context.Context, issue int) ([]model.DigestRecord, error) {
	path := "/api/v1/digest-records/?digest_issue=" + strconv.Itoa(issue)
	var dtos []recordDTO
	for path != "" {
		var page struct {
			Next    *string     `json:"next"`
			Results []recordDTO `json:"results"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("fetch issue %d records: %w", issue, err)
		}
		dtos = append(dtos, page.Results...)
		path = ""
		if page.Next != nil {
			u, err := url.Parse(*page.Next)
			if err != nil {
				return nil, fmt.Errorf("parse next page url: %w", err)
			}
			path = u.RequestURI()
		}
	}
	return decodeRecords(dtos)
}

// FetchSimilarRecords returns already classified records sharing the issue,
// content type, and content category. An empty result means nothing similar.
func (c *Client) FetchSimilarRecords(ctx context.Context, issue int, ct model.ContentType, cc model.ContentCategory) ([]model.DigestRecord, error) {
	q := url.Values{}
	q.Set("digest_issue", strconv.Itoa(issue))
	q.Set("content_type", string(ct))
	q.Set("content_category", string(cc))
	var dtos []recordDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/digest-records/?"+q.Encode(), nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch similar records: %w", err)
	}
	return decodeRecords(dtos)
}

// RecordPatch carries the curation decisions persisted for one record.
// Nil fields are left untouched on the server.
type RecordPatch struct {
	ID              int64                  `json:"id"`
	State           *model.State           `json:"state,omitempty"`
	DigestIssue     *int                   `json:"digest_issue,omitempty"`
	IsMain          *bool                  `json:"is_main,omitempty"`
	ContentType     *model.ContentType     `json:"content_type,omitempty"`
	ContentCategory *model.ContentCategory `json:"content_category,omitempty"`
}

// PatchRecord persists field changes for one record.
func (c *Client) PatchRecord(ctx context.Context, patch RecordPatch) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	path := fmt.Sprintf("/api/v1/digest-records/%d/", patch.ID)
	if err := c.do(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("patch record %d: %w", patch.ID, err)
	}
	return nil
}

// SendEstimation records one subscriber vote for a record.
func (c *Client) SendEstimation(ctx context.Context, recordID int64, est model.Estimation) error {
	dto := estimationDTO{User: est.User, State: string(est.State), IsMain: est.IsMain}
	if est.ContentType != nil {
		s := string(*est.ContentType)
		dto.ContentType = &s
	}
	if est.ContentCategory != nil {
		s := string(*est.ContentCategory)
		dto.ContentCategory = &s
	}
	payload, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal estimation: %w", err)
	}
	path := fmt.Sprintf("/api/v1/digest-records/%d/estimations/", recordID)
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("send estimation for record %d: %w", recordID, err)
	}
	return nil
}

// FetchKeywords returns the full shared keyword list.
func (c *Client) FetchKeywords(ctx context.Context) ([]model.Keyword, error) {
	var dtos []keywordDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/keywords/", nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch keywords: %w", err)
	}
	kws := make([]model.Keyword, 0, len(dtos))
	for _, d := range dtos {
		cat, err := model.ParseContentCategory(strings.ToLower(d.ContentCategory))
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", d.Name, err)
		}
		kws = append(kws, model.Keyword{
			Name:        d.Name,
			Category:    cat,
			Generic:     d.IsGeneric,
			Proprietary: d.Proprietary,
		})
	}
	return kws, nil
}

// FetchSimilarGroups returns the similarity groups of a digest issue.
func (c *Client) FetchSimilarGroups(ctx context.Context, issue int) ([]model.SimilarityGroup, error) {
	path := "/api/v1/similar-digest-records/?digest_issue=" + strconv.Itoa(issue)
	var dtos []groupDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch similarity groups: %w", err)
	}
	groups := make([]model.SimilarityGroup, 0, len(dtos))
	for _, d := range dtos {
		groups = append(groups, model.SimilarityGroup{
			ID:          d.ID,
			DigestIssue: d.DigestIssue,
			MemberIDs:   d.DigestRecords,
		})
	}
	return groups, nil
}

// CreateSimilarGroup creates a new similarity group and fills in its id.
func (c *Client) CreateSimilarGroup(ctx context.Context, g *model.SimilarityGroup) error {
	payload, err := json.Marshal(groupDTO{
		DigestIssue:   g.DigestIssue,
		DigestRecords: g.MemberIDs,
	})
	if err != nil {
		return fmt.Errorf("marshal group: %w", err)
	}
	var created groupDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/similar-digest-records/", payload, &created); err != nil {
		return fmt.Errorf("create similarity group: %w", err)
	}
	g.ID = created.ID
	return nil
}

// PatchSimilarGroup replaces the member list of an existing group.
func (c *Client) PatchSimilarGroup(ctx context.Context, id int64, memberIDs []int64) error {
	payload, err := json.Marshal(map[string]any{"digest_records": memberIDs})
	if err != nil {
		return fmt.Errorf("marshal group patch: %w", err)
	}
	path := fmt.Sprintf("/api/v1/similar-digest-records/%d/", id)
	if err := c.do(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("patch similarity group %d: %w", id, err)
	}
	return nil
}

// do performs one request with auth, retry, and JSON decoding. 5xx and
// transport errors are retried; everything else fails immediately.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("http %s %s: %w", method, path, err))
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read body: %w", err))
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data))
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
